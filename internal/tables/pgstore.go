package tables

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) ListTables(ctx context.Context) ([]Table, error) {
	const q = `SELECT id, name, hourly_rate_cents, occupied FROM tables ORDER BY name`
	rows, err := s.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Name, &t.HourlyRateCents, &t.Occupied); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s PGStore) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	const q = `SELECT id, name, hourly_rate_cents, occupied FROM tables WHERE id = $1`
	var t Table
	err := s.Pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.HourlyRateCents, &t.Occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return Table{}, common.NewAppError("NOT_FOUND", "table not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Table{}, err
	}
	return t, nil
}

func (s PGStore) SetTableOccupied(ctx context.Context, id uuid.UUID, occupied bool) error {
	_, err := s.Pool.Exec(ctx, `UPDATE tables SET occupied = $2 WHERE id = $1`, id, occupied)
	return err
}

func (s PGStore) InsertSession(ctx context.Context, sess Session) error {
	const q = `INSERT INTO table_sessions (id, table_id, opened_at) VALUES ($1, $2, $3)`
	_, err := s.Pool.Exec(ctx, q, sess.ID, sess.TableID, sess.OpenedAt)
	return err
}

func (s PGStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	const q = `
		SELECT id, table_id, opened_at, closed_at, minutes, amount_cents
		FROM table_sessions WHERE id = $1`
	var sess Session
	err := s.Pool.QueryRow(ctx, q, id).Scan(&sess.ID, &sess.TableID, &sess.OpenedAt, &sess.ClosedAt, &sess.Minutes, &sess.AmountCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, common.NewAppError("NOT_FOUND", "session not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s PGStore) OpenSessionByTable(ctx context.Context, tableID uuid.UUID) (Session, error) {
	const q = `
		SELECT id, table_id, opened_at, closed_at, minutes, amount_cents
		FROM table_sessions
		WHERE table_id = $1 AND closed_at IS NULL
		ORDER BY opened_at DESC
		LIMIT 1`
	var sess Session
	err := s.Pool.QueryRow(ctx, q, tableID).Scan(&sess.ID, &sess.TableID, &sess.OpenedAt, &sess.ClosedAt, &sess.Minutes, &sess.AmountCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, common.NewAppError("NOT_FOUND", "no open session on table", http.StatusNotFound, err)
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s PGStore) CloseSession(ctx context.Context, sess Session) error {
	const q = `
		UPDATE table_sessions
		SET closed_at = $2, minutes = $3, amount_cents = $4
		WHERE id = $1 AND closed_at IS NULL`
	tag, err := s.Pool.Exec(ctx, q, sess.ID, sess.ClosedAt, sess.Minutes, sess.AmountCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("SESSION_CLOSED", "session already closed", http.StatusConflict, nil)
	}
	return nil
}
