package ticket

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
)

var validate = validator.New()

// Handler exposes ticket lifecycle endpoints.
type Handler struct {
	Service *Service
}

type openRequest struct {
	TableSessionID *uuid.UUID `json:"table_session_id"`
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity" validate:"required,gt=0"`
}

type closeRequest struct {
	Discount float64 `json:"discount" validate:"gte=0"`
}

type ticketResponse struct {
	Ticket
	Discount  float64 `json:"discount"`
	TableTime float64 `json:"table_time"`
	Total     float64 `json:"total"`
}

func toResponse(t Ticket) ticketResponse {
	return ticketResponse{
		Ticket:    t,
		Discount:  money.FromCents(t.DiscountCents),
		TableTime: money.FromCents(t.TableTimeCents),
		Total:     money.FromCents(t.TotalCents),
	}
}

// Open handles POST /api/v1/admin/tickets.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	t, err := h.Service.Open(r.Context(), req.TableSessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toResponse(t)})
}

// Get handles GET /api/v1/admin/tickets/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(t)})
}

// List handles GET /api/v1/admin/tickets?status=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	status := r.URL.Query().Get("status")
	rows, total, err := h.Service.List(r.Context(), status, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ticketResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, toResponse(t))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// AddItem handles POST /api/v1/admin/tickets/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	item, err := h.Service.AddItem(r.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Close handles POST /api/v1/admin/tickets/{id}/close.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	t, err := h.Service.Close(r.Context(), id, req.Discount)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(t)})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "ticket not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
