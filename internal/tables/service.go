package tables

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
	"github.com/xGLETONAx/billares-chapinlandia/internal/events"
	"github.com/xGLETONAx/billares-chapinlandia/internal/lock"
	"github.com/xGLETONAx/billares-chapinlandia/internal/obs"
)

// Store defines the persistence operations for tables and sessions.
type Store interface {
	ListTables(ctx context.Context) ([]Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (Table, error)
	SetTableOccupied(ctx context.Context, id uuid.UUID, occupied bool) error
	InsertSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id uuid.UUID) (Session, error)
	OpenSessionByTable(ctx context.Context, tableID uuid.UUID) (Session, error)
	CloseSession(ctx context.Context, s Session) error
}

// Service manages table occupancy and time charging.
type Service struct {
	Store Store
	// Locker serialises session close per table across instances. When
	// nil the close runs unguarded (tests, single-instance deployments).
	Locker  *lock.Locker
	LockTTL time.Duration
	// Events, when set, receives a table.session.closed event per close.
	Events *events.Bus
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns all tables with their occupancy state.
func (s *Service) List(ctx context.Context) ([]Table, error) {
	return s.Store.ListTables(ctx)
}

// OpenSession starts play on a free table and marks it occupied.
func (s *Service) OpenSession(ctx context.Context, tableID uuid.UUID) (Session, error) {
	table, err := s.Store.GetTable(ctx, tableID)
	if err != nil {
		return Session{}, err
	}
	if table.Occupied {
		return Session{}, common.NewAppError("TABLE_OCCUPIED", "table already has an open session", http.StatusConflict, nil)
	}
	session := Session{ID: uuid.New(), TableID: tableID, OpenedAt: s.now()}
	if err := s.Store.InsertSession(ctx, session); err != nil {
		return Session{}, err
	}
	if err := s.Store.SetTableOccupied(ctx, tableID, true); err != nil {
		return Session{}, err
	}
	return session, nil
}

// CloseSession ends play, bills every started minute at the table's
// hourly rate, and frees the table. The close is serialised per table
// so concurrent callers cannot bill the same session twice.
func (s *Service) CloseSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	session, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	var closed Session
	err = s.withTableLock(ctx, session.TableID, func(ctx context.Context) error {
		closed, err = s.closeLocked(ctx, sessionID)
		return err
	})
	return closed, err
}

// CloseSessionByTable closes the open session on the given table.
func (s *Service) CloseSessionByTable(ctx context.Context, tableID uuid.UUID) (Session, error) {
	var closed Session
	err := s.withTableLock(ctx, tableID, func(ctx context.Context) error {
		session, err := s.Store.OpenSessionByTable(ctx, tableID)
		if err != nil {
			return err
		}
		closed, err = s.closeLocked(ctx, session.ID)
		return err
	})
	return closed, err
}

func (s *Service) closeLocked(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	session, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.ClosedAt != nil {
		return Session{}, common.NewAppError("SESSION_CLOSED", "session already closed", http.StatusConflict, nil)
	}
	table, err := s.Store.GetTable(ctx, session.TableID)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	session.ClosedAt = &now
	session.Minutes = billableMinutes(session.OpenedAt, now)
	session.AmountCents = timeCharge(table.HourlyRateCents, session.Minutes)

	if err := s.Store.CloseSession(ctx, session); err != nil {
		return Session{}, err
	}
	if err := s.Store.SetTableOccupied(ctx, session.TableID, false); err != nil {
		return Session{}, err
	}
	obs.IncSessionsClosed()
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSessionClosed, session.ID, map[string]any{
			"table_id":     session.TableID,
			"minutes":      session.Minutes,
			"amount_cents": session.AmountCents,
		})
	}
	return session, nil
}

func (s *Service) withTableLock(ctx context.Context, tableID uuid.UUID, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return s.Locker.WithLock(ctx, "tables:close:"+tableID.String(), ttl, fn)
}

// billableMinutes counts every started minute, never less than zero.
func billableMinutes(opened, closed time.Time) int32 {
	elapsed := closed.Sub(opened)
	if elapsed <= 0 {
		return 0
	}
	return int32(math.Ceil(elapsed.Minutes()))
}

// timeCharge converts minutes at an hourly cent rate into cents,
// rounding half away from zero.
func timeCharge(hourlyRateCents int64, minutes int32) int64 {
	if hourlyRateCents <= 0 || minutes <= 0 {
		return 0
	}
	return int64(math.Round(float64(hourlyRateCents) * float64(minutes) / 60))
}
