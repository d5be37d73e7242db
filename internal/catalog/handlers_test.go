package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

type fakeStore struct {
	products  map[uuid.UUID]Product
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[uuid.UUID]Product{}}
}

func (f *fakeStore) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	f.listCalls++
	out := make([]Product, 0, len(f.products))
	for _, p := range f.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, nil)
	}
	return p, nil
}

func (f *fakeStore) InsertProduct(ctx context.Context, p Product) (Product, error) {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, nil)
	}
	p.UpdatedAt = time.Now()
	f.products[p.ID] = p
	return p, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := newFakeStore()
	svc := &Service{Store: store, Cache: NewCache(client, time.Minute)}
	return &Handler{Service: svc}, store
}

func TestListServesFromCache(t *testing.T) {
	h, store := newTestHandler(t)
	id := uuid.New()
	store.products[id] = Product{ID: id, Name: "Cerveza Gallo", PriceCents: 2500, Active: true}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 1, store.listCalls)
}

func TestListSkipsInactiveProducts(t *testing.T) {
	h, store := newTestHandler(t)
	active := uuid.New()
	inactive := uuid.New()
	store.products[active] = Product{ID: active, Name: "Agua", PriceCents: 800, Active: true}
	store.products[inactive] = Product{ID: inactive, Name: "Viejo", PriceCents: 100, Active: false}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var body struct {
		Data []productResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Agua", body.Data[0].Name)
	require.InDelta(t, 8.00, body.Data[0].Price, 0.001)
}

func TestCreateProductInvalidatesCache(t *testing.T) {
	h, store := newTestHandler(t)

	// Prime the cache with an empty list.
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, 1, store.listCalls)

	body := `{"name":"Nachos","category":"comida","price":35.00}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data productResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, int64(3500), created.Data.PriceCents)
	require.True(t, created.Data.Active)

	// The next list repopulates from the store.
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, 2, store.listCalls)
}

func TestCreateProductValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, body := range []string{
		`{"price":10}`,
		`{"name":"X","price":-5}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestUpdateProduct(t *testing.T) {
	h, store := newTestHandler(t)
	id := uuid.New()
	store.products[id] = Product{ID: id, Name: "Alitas", PriceCents: 4500, Active: true}

	body := `{"name":"Alitas BBQ","category":"comida","price":48.50,"active":false}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/"+id.String(), strings.NewReader(body))
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := store.products[id]
	require.Equal(t, "Alitas BBQ", updated.Name)
	require.Equal(t, int64(4850), updated.PriceCents)
	require.False(t, updated.Active)
}

func TestUpdateUnknownProduct(t *testing.T) {
	h, _ := newTestHandler(t)
	id := uuid.New()

	body := `{"name":"Fantasma","price":1}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/"+id.String(), strings.NewReader(body))
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
