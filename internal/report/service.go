package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
	"github.com/xGLETONAx/billares-chapinlandia/internal/obs"
)

// Source supplies closed tickets for a half-open [from, to) range.
type Source interface {
	ClosedTickets(ctx context.Context, from, to time.Time) ([]Ticket, error)
}

// Summary aggregates net revenue over a range, in major units.
type Summary struct {
	From             string  `json:"from"`
	To               string  `json:"to"`
	TicketCount      int     `json:"ticket_count"`
	ProductRevenue   float64 `json:"product_revenue"`
	TableTimeRevenue float64 `json:"table_time_revenue"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// ProductRevenue is the net revenue of one product over a range.
type ProductRevenue struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

const cacheKeySet = "rep:keys"

// Service batches closed tickets through the apportionment engine and
// caches the aggregates in Redis. A nil Redis client disables caching.
type Service struct {
	Source           Source
	R                *redis.Client
	TTL              time.Duration
	DefaultRangeDays int
	Now              func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultRange returns [today-N, tomorrow) where N is the configured
// default range in days.
func (s *Service) DefaultRange() (from, to time.Time) {
	days := s.DefaultRangeDays
	if days <= 0 {
		days = 30
	}
	today := s.now().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -days), today.AddDate(0, 0, 1)
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// RangeSummary totals product and table-time revenue across all closed
// tickets between from (inclusive) and to (exclusive).
func (s *Service) RangeSummary(ctx context.Context, from, to time.Time) (Summary, error) {
	key := cacheKey("rep", "sum", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached Summary
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	summary, err := s.computeSummary(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	s.store(ctx, key, summary)
	return summary, nil
}

// RefreshRange recomputes a range bypassing the cache and overwrites
// the cached entry. The snapshot worker uses it for the current day.
func (s *Service) RefreshRange(ctx context.Context, from, to time.Time) (Summary, error) {
	summary, err := s.computeSummary(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	key := cacheKey("rep", "sum", from.Format("2006-01-02"), to.Format("2006-01-02"))
	s.store(ctx, key, summary)
	return summary, nil
}

func (s *Service) computeSummary(ctx context.Context, from, to time.Time) (Summary, error) {
	tickets, err := s.Source.ClosedTickets(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	var productCents, tableCents int64
	for _, t := range tickets {
		productCents += NetProductCents(t)
		tableCents += NetTableTimeCents(t)
	}
	return Summary{
		From:             from.Format("2006-01-02"),
		To:               to.Format("2006-01-02"),
		TicketCount:      len(tickets),
		ProductRevenue:   money.FromCents(productCents),
		TableTimeRevenue: money.FromCents(tableCents),
		TotalRevenue:     money.FromCents(productCents + tableCents),
	}, nil
}

// ProductBreakdown returns per-product net revenue over a range,
// sorted by revenue descending.
func (s *Service) ProductBreakdown(ctx context.Context, from, to time.Time) ([]ProductRevenue, error) {
	key := cacheKey("rep", "prod", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []ProductRevenue
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	tickets, err := s.Source.ClosedTickets(ctx, from, to)
	if err != nil {
		return nil, err
	}
	totals := map[string]int64{}
	for _, t := range tickets {
		for _, name := range distinctNames(t) {
			totals[name] += NetProductCentsFor(t, name)
		}
	}
	out := make([]ProductRevenue, 0, len(totals))
	for name, cents := range totals {
		out = append(out, ProductRevenue{Name: name, Revenue: money.FromCents(cents)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	s.store(ctx, key, out)
	return out, nil
}

// ProductFor returns the net revenue of a single product over a range.
func (s *Service) ProductFor(ctx context.Context, from, to time.Time, name string) (ProductRevenue, error) {
	tickets, err := s.Source.ClosedTickets(ctx, from, to)
	if err != nil {
		return ProductRevenue{}, err
	}
	var cents int64
	for _, t := range tickets {
		cents += NetProductCentsFor(t, name)
	}
	return ProductRevenue{Name: name, Revenue: money.FromCents(cents)}, nil
}

// Invalidate drops every cached report entry. Called when a ticket
// closes so aggregates never serve stale figures.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil || s.R == nil {
		return nil
	}
	keys, err := s.R.SMembers(ctx, cacheKeySet).Result()
	if err != nil {
		return err
	}
	keys = append(keys, cacheKeySet)
	return s.R.Del(ctx, keys...).Err()
}

func distinctNames(t Ticket) []string {
	seen := map[string]bool{}
	var names []string
	for _, it := range t.Items {
		if !seen[it.Name] {
			seen[it.Name] = true
			names = append(names, it.Name)
		}
	}
	return names
}

func (s *Service) getCached(ctx context.Context, key string, dst any) bool {
	if s == nil || s.R == nil {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		obs.IncReportCache("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		obs.IncReportCache("miss")
		return false
	}
	obs.IncReportCache("hit")
	return true
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s == nil || s.R == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Cached keys are tracked in a set so invalidation can sweep them.
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
	_ = s.R.SAdd(ctx, cacheKeySet, key).Err()
}
