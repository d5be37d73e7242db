package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Ticket statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Ticket is a consumption ticket. Monetary fields are integer cents.
type Ticket struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Status         string     `json:"status"`
	TableSessionID *uuid.UUID `json:"table_session_id,omitempty"`
	Items          []Item     `json:"items"`
	DiscountCents  int64      `json:"discount_cents"`
	TableTimeCents int64      `json:"table_time_cents"`
	TotalCents     int64      `json:"total_cents"`
	OpenedAt       time.Time  `json:"opened_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// Item is a product line on a ticket. The unit price is snapshotted
// from the catalog at add time so later price changes do not rewrite
// closed tickets.
type Item struct {
	ID             uuid.UUID `json:"id"`
	TicketID       uuid.UUID `json:"ticket_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int32     `json:"quantity"`
}

// ProductGrossCents sums the gross product value of the ticket's lines.
func (t Ticket) ProductGrossCents() int64 {
	var total int64
	for _, it := range t.Items {
		total += it.UnitPriceCents * int64(it.Quantity)
	}
	return total
}
