package tables

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
)

// Handler exposes table and session endpoints.
type Handler struct {
	Service *Service
}

type sessionResponse struct {
	Session
	Amount float64 `json:"amount"`
}

// List handles GET /api/v1/tables.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// OpenSession handles POST /api/v1/admin/tables/{id}/sessions.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "table not found", nil)
		return
	}
	session, err := h.Service.OpenSession(r.Context(), tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": session})
}

// CloseSession handles POST /api/v1/admin/tables/{id}/sessions/close.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "table not found", nil)
		return
	}
	session, err := h.Service.CloseSessionByTable(r.Context(), tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": sessionResponse{Session: session, Amount: money.FromCents(session.AmountCents)},
	})
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
