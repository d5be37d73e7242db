package tables

import (
	"time"

	"github.com/google/uuid"
)

// Table is a billiard table with its time rate in integer cents per hour.
type Table struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	Occupied        bool      `json:"occupied"`
}

// Session is one stretch of play on a table. Minutes and AmountCents
// are filled in when the session closes.
type Session struct {
	ID          uuid.UUID  `json:"id"`
	TableID     uuid.UUID  `json:"table_id"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Minutes     int32      `json:"minutes"`
	AmountCents int64      `json:"amount_cents"`
}
