package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, src Source) *Handler {
	t.Helper()
	svc, _ := newTestService(t, src)
	svc.DefaultRangeDays = 30
	return &Handler{Service: svc}
}

func TestSummaryHandler(t *testing.T) {
	h := newTestHandler(t, &stubSource{tickets: sampleTickets()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/summary?from=2025-06-01&to=2025-06-15", nil)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Data.TicketCount)
	require.InDelta(t, 52.40, body.Data.TotalRevenue, 0.001)
	// to is inclusive at the API surface.
	require.Equal(t, "2025-06-16", body.Data.To)
}

func TestSummaryHandlerDefaultsRange(t *testing.T) {
	src := &stubSource{}
	h := newTestHandler(t, src)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/summary", nil)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, src.calls)
}

func TestSummaryHandlerRejectsBadDates(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	for _, target := range []string{
		"/api/v1/admin/reports/summary?from=junk",
		"/api/v1/admin/reports/summary?to=2025-13-40",
		"/api/v1/admin/reports/summary?from=2025-06-15&to=2025-06-01",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.Summary(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestProductsHandler(t *testing.T) {
	h := newTestHandler(t, &stubSource{tickets: sampleTickets()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/products?from=2025-06-01&to=2025-06-15", nil)
	rec := httptest.NewRecorder()
	h.Products(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []ProductRevenue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "Cerveza", body.Data[0].Name)
}

func TestProductsHandlerWithFilter(t *testing.T) {
	h := newTestHandler(t, &stubSource{tickets: sampleTickets()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/products?from=2025-06-01&to=2025-06-15&product=Cerveza", nil)
	rec := httptest.NewRecorder()
	h.Products(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data ProductRevenue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Cerveza", body.Data.Name)
	require.InDelta(t, 14.40, body.Data.Revenue, 0.001)
}

func TestProductsHandlerEmptyRange(t *testing.T) {
	h := newTestHandler(t, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/products?from=2025-06-01&to=2025-06-15", nil)
	rec := httptest.NewRecorder()
	h.Products(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
