package calculations

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ai-calculator/internal/auth"
	"ai-calculator/internal/models"
	"ai-calculator/internal/pdf"
	"ai-calculator/internal/respond"
)

// Handler serves /api/calculations. Every route expects auth.JWTMiddleware
// in front of it.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the routes on mux behind the bearer middleware.
func (h *Handler) Register(mux *http.ServeMux, authSvc *auth.Service) {
	protect := func(fn http.HandlerFunc) http.Handler { return auth.JWTMiddleware(authSvc, fn) }
	mux.Handle("GET /api/calculations", protect(h.List))
	mux.Handle("POST /api/calculations", protect(h.Save))
	mux.Handle("GET /api/calculations/{id}", protect(h.Get))
	mux.Handle("DELETE /api/calculations/{id}", protect(h.Delete))
	mux.Handle("GET /api/calculations/{id}/pdf", protect(h.PDF))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	calcs, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list calculations", "user_id", id.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error retrieving calculations")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "calculations": calcs})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "calculation": calc})
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req SaveRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	calc, err := h.svc.Save(r.Context(), id.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			respond.Error(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, models.ErrUnsupportedOperation):
			respond.Error(w, http.StatusBadRequest, "Unsupported operation type")
		case errors.Is(err, ErrTitleTooLong):
			respond.Error(w, http.StatusBadRequest, "Title is too long (max 200 characters)")
		default:
			h.log.ErrorContext(r.Context(), "save calculation", "user_id", id.UserID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "Error saving calculation")
		}
		return
	}
	h.log.InfoContext(r.Context(), "calculation saved", "user_id", id.UserID, "calculation_id", calc.ID)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "Calculation saved successfully",
		"calculation": calc,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	calcID := r.PathValue("id")
	if err := h.svc.Delete(r.Context(), id.UserID, calcID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Calculation not found or not owned by user")
			return
		}
		h.log.ErrorContext(r.Context(), "delete calculation", "calculation_id", calcID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error deleting calculation")
		return
	}
	h.log.InfoContext(r.Context(), "calculation deleted", "user_id", id.UserID, "calculation_id", calcID)
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Calculation deleted successfully"})
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := pdf.Render(&buf, calc); err != nil {
		h.log.ErrorContext(r.Context(), "render pdf", "calculation_id", calc.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error generating PDF")
		return
	}
	name := pdf.FileName(calc.Title)
	w.Header().Set("Content-Type", pdf.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*models.Calculation, bool) {
	id, _ := auth.IdentityFromContext(r.Context())
	calc, err := h.svc.Get(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Calculation not found")
			return nil, false
		}
		h.log.ErrorContext(r.Context(), "get calculation", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Error retrieving calculation")
		return nil, false
	}
	return calc, true
}
