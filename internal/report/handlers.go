package report

import (
	"net/http"
	"strings"
	"time"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

const dateLayout = "2006-01-02"

// Handler exposes revenue report endpoints.
type Handler struct {
	Service *Service
}

// Summary handles GET /api/v1/admin/reports/summary?from=&to=.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.RangeSummary(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build summary", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Products handles GET /api/v1/admin/reports/products?from=&to=[&product=].
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	if name := strings.TrimSpace(r.URL.Query().Get("product")); name != "" {
		one, err := h.Service.ProductFor(r.Context(), from, to, name)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build product report", nil)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": one})
		return
	}
	breakdown, err := h.Service.ProductBreakdown(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build product report", nil)
		return
	}
	if breakdown == nil {
		breakdown = []ProductRevenue{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

// parseRange reads from/to query params as dates. Missing params fall
// back to the service default range; to is exclusive, so the parsed
// date is bumped by one day to cover it fully.
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, to := h.Service.DefaultRange()
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date, expected YYYY-MM-DD", nil)
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := q.Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date, expected YYYY-MM-DD", nil)
			return time.Time{}, time.Time{}, false
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "to must not be before from", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
