package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// TicketsOpenedTotal counts opened consumption tickets.
	TicketsOpenedTotal prometheus.Counter
	// TicketsClosedTotal counts closed consumption tickets.
	TicketsClosedTotal prometheus.Counter
	// RevenueCentsTotal accumulates collected revenue in cents by category.
	RevenueCentsTotal *prometheus.CounterVec
	// SessionsClosedTotal counts closed table sessions.
	SessionsClosedTotal prometheus.Counter
	// ReportCacheTotal counts report cache lookups by result.
	ReportCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors. Safe to call more than once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		TicketsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_opened_total",
			Help:      "Number of consumption tickets opened.",
		})
		TicketsClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_closed_total",
			Help:      "Number of consumption tickets closed.",
		})
		RevenueCentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_cents_total",
			Help:      "Collected revenue in integer cents by category.",
		}, []string{"category"})
		SessionsClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_sessions_closed_total",
			Help:      "Number of table play sessions closed.",
		})
		ReportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, TicketsOpenedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				TicketsOpenedTotal = v
			}
		})
		mustRegisterCollector(reg, TicketsClosedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				TicketsClosedTotal = v
			}
		})
		mustRegisterCollector(reg, RevenueCentsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RevenueCentsTotal = v
			}
		})
		mustRegisterCollector(reg, SessionsClosedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SessionsClosedTotal = v
			}
		})
		mustRegisterCollector(reg, ReportCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportCacheTotal = v
			}
		})
	})
}

// IncTicketsOpened bumps the opened-tickets counter when registered.
func IncTicketsOpened() {
	if TicketsOpenedTotal != nil {
		TicketsOpenedTotal.Inc()
	}
}

// IncTicketsClosed bumps the closed-tickets counter when registered.
func IncTicketsClosed() {
	if TicketsClosedTotal != nil {
		TicketsClosedTotal.Inc()
	}
}

// AddRevenueCents accumulates revenue for a category when registered.
func AddRevenueCents(category string, cents int64) {
	if RevenueCentsTotal != nil && cents > 0 {
		RevenueCentsTotal.WithLabelValues(category).Add(float64(cents))
	}
}

// IncSessionsClosed bumps the closed-sessions counter when registered.
func IncSessionsClosed() {
	if SessionsClosedTotal != nil {
		SessionsClosedTotal.Inc()
	}
}

// IncReportCache records a report cache hit or miss when registered.
func IncReportCache(result string) {
	if ReportCacheTotal != nil {
		ReportCacheTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("obs: register collector: %w", err))
	}
}
