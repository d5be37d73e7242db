package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
)

// PGSource loads closed tickets from Postgres for the engine.
type PGSource struct {
	Pool *pgxpool.Pool
}

func (s *PGSource) ClosedTickets(ctx context.Context, from, to time.Time) ([]Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, table_time_cents, discount_cents, total_cents
		FROM tickets
		WHERE status = 'closed' AND closed_at >= $1 AND closed_at < $2
		ORDER BY closed_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query closed tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	index := map[uuid.UUID]int{}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var tableTime, discount, total int64
		if err := rows.Scan(&id, &tableTime, &discount, &total); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		index[id] = len(tickets)
		ids = append(ids, id)
		tickets = append(tickets, Ticket{
			TableTime: money.FromCents(tableTime),
			Discount:  money.FromCents(discount),
			Total:     money.FromCents(total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	if len(tickets) == 0 {
		return nil, nil
	}

	itemRows, err := s.Pool.Query(ctx, `
		SELECT ticket_id, name, unit_price_cents, quantity
		FROM ticket_items
		WHERE ticket_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query ticket items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var ticketID uuid.UUID
		var name string
		var unitPrice int64
		var qty int32
		if err := itemRows.Scan(&ticketID, &name, &unitPrice, &qty); err != nil {
			return nil, fmt.Errorf("scan ticket item: %w", err)
		}
		i, ok := index[ticketID]
		if !ok {
			continue
		}
		tickets[i].Items = append(tickets[i].Items, LineItem{
			Name:      name,
			UnitPrice: money.FromCents(unitPrice),
			Quantity:  int(qty),
		})
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket items: %w", err)
	}
	return tickets, nil
}
