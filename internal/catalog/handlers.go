package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
)

var validate = validator.New()

// Handler exposes catalog endpoints.
type Handler struct {
	Service *Service
}

type productRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category"`
	Price    float64 `json:"price" validate:"gte=0"`
	Active   *bool   `json:"active"`
}

type productResponse struct {
	Product
	Price float64 `json:"price"`
}

func toResponse(p Product) productResponse {
	return productResponse{Product: p, Price: money.FromCents(p.PriceCents)}
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]productResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toResponse(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Create handles POST /api/v1/admin/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	created, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toResponse(created)})
}

// Update handles PUT /api/v1/admin/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	input, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(updated)})
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return ProductInput{}, false
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return ProductInput{}, false
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return ProductInput{
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: money.ToCents(req.Price),
		Active:     active,
	}, true
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
