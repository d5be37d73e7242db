package ticket

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/xGLETONAx/billares-chapinlandia/internal/catalog"
	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
	"github.com/xGLETONAx/billares-chapinlandia/internal/events"
	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
	"github.com/xGLETONAx/billares-chapinlandia/internal/obs"
	"github.com/xGLETONAx/billares-chapinlandia/internal/tables"
)

// ProductReader looks up catalog products for line-item snapshots.
type ProductReader interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// SessionCloser ends the table session attached to a ticket and
// returns the billed session.
type SessionCloser interface {
	CloseSession(ctx context.Context, sessionID uuid.UUID) (tables.Session, error)
}

// Service runs the ticket lifecycle: open with a daily code, add
// price-snapshotted line items, close with an optional discount.
type Service struct {
	Store    Store
	Seq      *Sequence
	Products ProductReader
	Sessions SessionCloser
	Events   *events.Bus
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Open creates a new open ticket. The code generator is called exactly
// once here; each call advances the daily sequence.
func (s *Service) Open(ctx context.Context, sessionID *uuid.UUID) (Ticket, error) {
	if s.Seq == nil {
		return Ticket{}, common.NewAppError("INTERNAL", "code sequence not configured", http.StatusInternalServerError, nil)
	}
	t := Ticket{
		ID:             uuid.New(),
		Code:           s.Seq.Next(),
		Status:         StatusOpen,
		TableSessionID: sessionID,
		OpenedAt:       s.now(),
	}
	if err := s.Store.InsertTicket(ctx, t); err != nil {
		return Ticket{}, err
	}
	obs.IncTicketsOpened()
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicTicketOpened, t.ID, map[string]any{"code": t.Code})
	}
	return t, nil
}

// Get returns a ticket with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Ticket, error) {
	return s.Store.GetTicket(ctx, id)
}

// List returns a page of tickets, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, page, perPage int) ([]Ticket, int, error) {
	if status != "" && status != StatusOpen && status != StatusClosed {
		return nil, 0, common.NewAppError("VALIDATION_ERROR", "unknown ticket status", http.StatusBadRequest, nil)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return s.Store.ListTickets(ctx, status, perPage, (page-1)*perPage)
}

// AddItem appends a product line to an open ticket, snapshotting the
// catalog price at add time.
func (s *Service) AddItem(ctx context.Context, ticketID, productID uuid.UUID, quantity int32) (Item, error) {
	if quantity <= 0 {
		return Item{}, common.NewAppError("VALIDATION_ERROR", "quantity must be positive", http.StatusBadRequest, nil)
	}
	t, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return Item{}, err
	}
	if t.Status != StatusOpen {
		return Item{}, common.NewAppError("TICKET_CLOSED", "ticket is not open", http.StatusConflict, nil)
	}
	product, err := s.Products.Get(ctx, productID)
	if err != nil {
		return Item{}, err
	}
	if !product.Active {
		return Item{}, common.NewAppError("VALIDATION_ERROR", "product is not active", http.StatusBadRequest, nil)
	}
	item := Item{
		ID:             uuid.New(),
		TicketID:       ticketID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Quantity:       quantity,
	}
	if err := s.Store.InsertItem(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Close settles an open ticket. If a table session is attached it is
// closed first and its charge becomes the ticket's table-time revenue.
// The collected total is products + table time - discount, floored at
// zero.
func (s *Service) Close(ctx context.Context, ticketID uuid.UUID, discount float64) (Ticket, error) {
	discountCents := money.ToCents(discount)
	if discountCents < 0 {
		return Ticket{}, common.NewAppError("VALIDATION_ERROR", "discount must not be negative", http.StatusBadRequest, nil)
	}
	t, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return Ticket{}, err
	}
	if t.Status != StatusOpen {
		return Ticket{}, common.NewAppError("TICKET_CLOSED", "ticket already closed", http.StatusConflict, nil)
	}

	var tableTimeCents int64
	if t.TableSessionID != nil {
		if s.Sessions == nil {
			return Ticket{}, common.NewAppError("INTERNAL", "session closer not configured", http.StatusInternalServerError, nil)
		}
		session, err := s.Sessions.CloseSession(ctx, *t.TableSessionID)
		if err != nil {
			return Ticket{}, err
		}
		tableTimeCents = session.AmountCents
	}

	now := s.now()
	t.Status = StatusClosed
	t.DiscountCents = discountCents
	t.TableTimeCents = tableTimeCents
	t.TotalCents = money.ClampNonNegative(t.ProductGrossCents() + tableTimeCents - discountCents)
	t.ClosedAt = &now

	if err := s.Store.CloseTicket(ctx, t); err != nil {
		return Ticket{}, err
	}
	obs.IncTicketsClosed()
	obs.AddRevenueCents("collected", t.TotalCents)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicTicketClosed, t.ID, map[string]any{
			"code":        t.Code,
			"total_cents": t.TotalCents,
			"closed_at":   now,
		})
	}
	return t, nil
}
