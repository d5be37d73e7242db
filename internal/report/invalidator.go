package report

import (
	"context"

	"github.com/xGLETONAx/billares-chapinlandia/internal/events"
)

// CacheInvalidator drops cached report aggregates whenever a ticket
// closes. It implements events.Notifier.
type CacheInvalidator struct {
	Reports *Service
}

func (n *CacheInvalidator) Notify(ctx context.Context, ev events.Event) error {
	if n == nil || n.Reports == nil {
		return nil
	}
	if ev.Topic != events.TopicTicketClosed {
		return nil
	}
	return n.Reports.Invalidate(ctx)
}
