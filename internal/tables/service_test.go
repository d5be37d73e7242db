package tables

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
	"github.com/xGLETONAx/billares-chapinlandia/internal/events"
)

type fakeStore struct {
	tables   map[uuid.UUID]Table
	sessions map[uuid.UUID]Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:   map[uuid.UUID]Table{},
		sessions: map[uuid.UUID]Session{},
	}
}

func (f *fakeStore) ListTables(ctx context.Context) ([]Table, error) {
	out := make([]Table, 0, len(f.tables))
	for _, t := range f.tables {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return Table{}, common.NewAppError("NOT_FOUND", "table not found", http.StatusNotFound, nil)
	}
	return t, nil
}

func (f *fakeStore) SetTableOccupied(ctx context.Context, id uuid.UUID, occupied bool) error {
	t := f.tables[id]
	t.Occupied = occupied
	f.tables[id] = t
	return nil
}

func (f *fakeStore) InsertSession(ctx context.Context, s Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return Session{}, common.NewAppError("NOT_FOUND", "session not found", http.StatusNotFound, nil)
	}
	return s, nil
}

func (f *fakeStore) OpenSessionByTable(ctx context.Context, tableID uuid.UUID) (Session, error) {
	for _, s := range f.sessions {
		if s.TableID == tableID && s.ClosedAt == nil {
			return s, nil
		}
	}
	return Session{}, common.NewAppError("NOT_FOUND", "no open session for table", http.StatusNotFound, nil)
}

func (f *fakeStore) CloseSession(ctx context.Context, s Session) error {
	existing, ok := f.sessions[s.ID]
	if !ok || existing.ClosedAt != nil {
		return common.NewAppError("SESSION_CLOSED", "session already closed", http.StatusConflict, nil)
	}
	f.sessions[s.ID] = s
	return nil
}

func newTestService(store Store, now time.Time) (*Service, *time.Time) {
	clock := now
	svc := &Service{
		Store: store,
		Now:   func() time.Time { return clock },
	}
	return svc, &clock
}

func TestOpenSessionMarksTableOccupied(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, Name: "Mesa 1", HourlyRateCents: 4000}

	svc, _ := newTestService(store, time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC))
	sess, err := svc.OpenSession(context.Background(), tableID)
	require.NoError(t, err)
	require.Equal(t, tableID, sess.TableID)
	require.True(t, store.tables[tableID].Occupied)
}

func TestOpenSessionConflictsWhenOccupied(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, Occupied: true}

	svc, _ := newTestService(store, time.Now())
	_, err := svc.OpenSession(context.Background(), tableID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "TABLE_OCCUPIED", appErr.Code)
}

func TestCloseSessionBillsStartedMinutes(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, HourlyRateCents: 6000}

	opened := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, clock := newTestService(store, opened)
	sess, err := svc.OpenSession(context.Background(), tableID)
	require.NoError(t, err)

	// 90m30s elapsed: 91 started minutes at 6000/h is 9100.
	*clock = opened.Add(90*time.Minute + 30*time.Second)
	closed, err := svc.CloseSession(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, int32(91), closed.Minutes)
	require.Equal(t, int64(9100), closed.AmountCents)
	require.NotNil(t, closed.ClosedAt)
	require.False(t, store.tables[tableID].Occupied)
}

func TestCloseSessionRoundsCharge(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, HourlyRateCents: 4000}

	opened := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, clock := newTestService(store, opened)
	sess, err := svc.OpenSession(context.Background(), tableID)
	require.NoError(t, err)

	// 7 minutes at 4000/h: 4000*7/60 = 466.67, rounds to 467.
	*clock = opened.Add(7 * time.Minute)
	closed, err := svc.CloseSession(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, int64(467), closed.AmountCents)
}

func TestCloseSessionTwiceConflicts(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, HourlyRateCents: 4000}

	opened := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, clock := newTestService(store, opened)
	sess, err := svc.OpenSession(context.Background(), tableID)
	require.NoError(t, err)

	*clock = opened.Add(time.Hour)
	_, err = svc.CloseSession(context.Background(), sess.ID)
	require.NoError(t, err)

	_, err = svc.CloseSession(context.Background(), sess.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "SESSION_CLOSED", appErr.Code)
}

func TestCloseSessionByTable(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, HourlyRateCents: 3000}

	opened := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, clock := newTestService(store, opened)
	sess, err := svc.OpenSession(context.Background(), tableID)
	require.NoError(t, err)

	*clock = opened.Add(60 * time.Minute)
	closed, err := svc.CloseSessionByTable(context.Background(), tableID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, closed.ID)
	require.Equal(t, int64(3000), closed.AmountCents)
}

type memEventStore struct {
	events []events.Event
}

func (m *memEventStore) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	ev := events.Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	m.events = append(m.events, ev)
	return ev, nil
}

func TestCloseSessionEmitsEvent(t *testing.T) {
	store := newFakeStore()
	tableID := uuid.New()
	store.tables[tableID] = Table{ID: tableID, HourlyRateCents: 3000}

	opened := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, clock := newTestService(store, opened)
	eventStore := &memEventStore{}
	svc.Events = &events.Bus{Store: eventStore}

	sess, err := svc.OpenSession(context.Background(), tableID)
	require.NoError(t, err)

	*clock = opened.Add(30 * time.Minute)
	_, err = svc.CloseSession(context.Background(), sess.ID)
	require.NoError(t, err)

	require.Len(t, eventStore.events, 1)
	require.Equal(t, events.TopicSessionClosed, eventStore.events[0].Topic)
	require.Equal(t, sess.ID, eventStore.events[0].AggregateID)
}

func TestBillableMinutes(t *testing.T) {
	base := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		elapsed time.Duration
		want    int32
	}{
		{"zero elapsed", 0, 0},
		{"negative elapsed", -time.Minute, 0},
		{"exact minute", time.Minute, 1},
		{"partial minute rounds up", 61 * time.Second, 2},
		{"exact hour", time.Hour, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := billableMinutes(base, base.Add(tc.elapsed))
			if got != tc.want {
				t.Fatalf("billableMinutes(%v) = %d, want %d", tc.elapsed, got, tc.want)
			}
		})
	}
}
