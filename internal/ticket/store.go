package ticket

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

// Store defines ticket persistence.
type Store interface {
	InsertTicket(ctx context.Context, t Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (Ticket, error)
	ListTickets(ctx context.Context, status string, limit, offset int) ([]Ticket, int, error)
	InsertItem(ctx context.Context, item Item) error
	CloseTicket(ctx context.Context, t Ticket) error
}

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) InsertTicket(ctx context.Context, t Ticket) error {
	const q = `
		INSERT INTO tickets (id, code, status, table_session_id, discount_cents, table_time_cents, total_cents, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.Pool.Exec(ctx, q, t.ID, t.Code, t.Status, t.TableSessionID, t.DiscountCents, t.TableTimeCents, t.TotalCents, t.OpenedAt)
	return err
}

func (s PGStore) GetTicket(ctx context.Context, id uuid.UUID) (Ticket, error) {
	const q = `
		SELECT id, code, status, table_session_id, discount_cents, table_time_cents, total_cents, opened_at, closed_at
		FROM tickets WHERE id = $1`
	var t Ticket
	err := s.Pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Code, &t.Status, &t.TableSessionID,
		&t.DiscountCents, &t.TableTimeCents, &t.TotalCents,
		&t.OpenedAt, &t.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, common.NewAppError("NOT_FOUND", "ticket not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Ticket{}, err
	}
	items, err := s.listItems(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	t.Items = items
	return t, nil
}

// ListTickets returns a page of tickets ordered by open time, newest
// first, with the total count for pagination. An empty status matches
// all tickets. Items are not loaded for list views.
func (s PGStore) ListTickets(ctx context.Context, status string, limit, offset int) ([]Ticket, int, error) {
	const q = `
		SELECT id, code, status, table_session_id, discount_cents, table_time_cents, total_cents, opened_at, closed_at
		FROM tickets
		WHERE ($1 = '' OR status = $1)
		ORDER BY opened_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.Pool.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(
			&t.ID, &t.Code, &t.Status, &t.TableSessionID,
			&t.DiscountCents, &t.TableTimeCents, &t.TotalCents,
			&t.OpenedAt, &t.ClosedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	const countQ = `SELECT count(*) FROM tickets WHERE ($1 = '' OR status = $1)`
	if err := s.Pool.QueryRow(ctx, countQ, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s PGStore) listItems(ctx context.Context, ticketID uuid.UUID) ([]Item, error) {
	const q = `
		SELECT id, ticket_id, name, unit_price_cents, quantity
		FROM ticket_items WHERE ticket_id = $1 ORDER BY id`
	rows, err := s.Pool.Query(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.TicketID, &it.Name, &it.UnitPriceCents, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s PGStore) InsertItem(ctx context.Context, item Item) error {
	const q = `
		INSERT INTO ticket_items (id, ticket_id, name, unit_price_cents, quantity)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.Pool.Exec(ctx, q, item.ID, item.TicketID, item.Name, item.UnitPriceCents, item.Quantity)
	return err
}

func (s PGStore) CloseTicket(ctx context.Context, t Ticket) error {
	const q = `
		UPDATE tickets
		SET status = $2, table_session_id = $3, discount_cents = $4, table_time_cents = $5, total_cents = $6, closed_at = $7
		WHERE id = $1 AND status = 'open'`
	tag, err := s.Pool.Exec(ctx, q, t.ID, t.Status, t.TableSessionID, t.DiscountCents, t.TableTimeCents, t.TotalCents, t.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("TICKET_CLOSED", "ticket already closed", http.StatusConflict, nil)
	}
	return nil
}
