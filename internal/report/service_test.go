package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	tickets []Ticket
	calls   int
	err     error
}

func (s *stubSource) ClosedTickets(ctx context.Context, from, to time.Time) ([]Ticket, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tickets, nil
}

func newTestService(t *testing.T, src Source) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{
		Source: src,
		R:      client,
		TTL:    time.Minute,
		Now:    func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}, mr
}

func sampleTickets() []Ticket {
	return []Ticket{
		{
			Items:     []LineItem{{Name: "Cerveza", UnitPrice: 8, Quantity: 2}},
			TableTime: 20,
			Discount:  3.6,
			Total:     32.4, // gross 36, 10% discount
		},
		{
			Items:     []LineItem{{Name: "Nachos", UnitPrice: 10, Quantity: 1}},
			TableTime: 10,
			Total:     20,
		},
	}
}

func TestRangeSummaryTotals(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc, _ := newTestService(t, src)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	sum, err := svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)

	// Ticket 1: gross 16 product + 20 table, 10% discount -> 14.40 + 18.00.
	// Ticket 2: no discount -> 10 + 10.
	require.Equal(t, 2, sum.TicketCount)
	require.InDelta(t, 24.40, sum.ProductRevenue, 0.001)
	require.InDelta(t, 28.00, sum.TableTimeRevenue, 0.001)
	require.InDelta(t, 52.40, sum.TotalRevenue, 0.001)
	require.Equal(t, "2025-06-01", sum.From)
}

func TestRangeSummaryUsesCache(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc, _ := newTestService(t, src)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
}

func TestInvalidateDropsCachedKeys(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc, mr := newTestService(t, src)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())

	require.NoError(t, svc.Invalidate(context.Background()))
	require.Empty(t, mr.Keys())

	_, err = svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestProductBreakdownSorting(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc, _ := newTestService(t, src)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	breakdown, err := svc.ProductBreakdown(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	require.Equal(t, "Cerveza", breakdown[0].Name)
	require.InDelta(t, 14.40, breakdown[0].Revenue, 0.001)
	require.Equal(t, "Nachos", breakdown[1].Name)
	require.InDelta(t, 10.00, breakdown[1].Revenue, 0.001)
}

func TestProductForSingleName(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc, _ := newTestService(t, src)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	one, err := svc.ProductFor(context.Background(), from, to, "Nachos")
	require.NoError(t, err)
	require.InDelta(t, 10.00, one.Revenue, 0.001)

	missing, err := svc.ProductFor(context.Background(), from, to, "Pizza")
	require.NoError(t, err)
	require.Zero(t, missing.Revenue)
}

func TestRefreshRangeBypassesCache(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc, _ := newTestService(t, src)

	from := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)

	src.tickets = append(src.tickets, Ticket{TableTime: 5, Total: 5})
	refreshed, err := svc.RefreshRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 3, refreshed.TicketCount)

	// The refreshed snapshot replaces the cached entry.
	cached, err := svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 3, cached.TicketCount)
	require.Equal(t, 2, src.calls)
}

func TestServiceWithoutRedis(t *testing.T) {
	src := &stubSource{tickets: sampleTickets()}
	svc := &Service{Source: src}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.RangeSummary(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
	require.NoError(t, svc.Invalidate(context.Background()))
}
