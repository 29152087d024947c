package solver

import (
	"errors"
	"log/slog"
	"net/http"

	"ai-calculator/internal/models"
	"ai-calculator/internal/render"
	"ai-calculator/internal/respond"
)

// SolveHandler serves POST /api/solve. Failures of the math engine are
// reported with status 200 and success=false.
func SolveHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		res, err := svc.Solve(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrUnsupportedOperation):
				respond.Error(w, http.StatusBadRequest, "Unsupported operation type")
			case errors.Is(err, ErrEmptyExpression):
				respond.Error(w, http.StatusBadRequest, "Missing LaTeX expression")
			default:
				log.WarnContext(r.Context(), "solve failed", "operation", req.OperationType, "error", err)
				respond.Error(w, http.StatusOK, err.Error())
			}
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"solution":        res.Solution,
			"solution_method": res.Method,
			"interval":        res.Interval,
			"ai_steps":        res.AISteps,
			"display":         render.Solution(res.Solution),
			"steps_html":      render.StepsHTML(res.AISteps),
		})
	}
}
