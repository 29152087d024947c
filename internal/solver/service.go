// Package solver answers POST /api/solve: plain arithmetic is evaluated
// locally, everything else is forwarded to the external CAS, and the answer
// is optionally explained step by step.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ai-calculator/internal/calculator"
	"ai-calculator/internal/models"
)

var ErrEmptyExpression = errors.New("missing LaTeX expression")

const (
	MethodNumeric = "numeric"
	MethodCAS     = "cas"
)

// CAS solves symbolic problems.
type CAS interface {
	Solve(ctx context.Context, expr string, op models.OperationType, interval string) (models.Solution, error)
}

// Explainer produces explanation steps. Explain never fails; problems are
// reported as steps.
type Explainer interface {
	Available(ctx context.Context) bool
	Explain(ctx context.Context, problem, answer string) []string
}

type Request struct {
	Latex         string `json:"latex"`
	OperationType string `json:"operation_type"`
	Interval      string `json:"interval,omitempty"`
	UseAI         *bool  `json:"use_ai,omitempty"`
}

type Result struct {
	Solution models.Solution `json:"solution"`
	Method   string          `json:"solution_method"`
	Interval string          `json:"interval,omitempty"`
	AISteps  []string        `json:"ai_steps"`
}

type Service struct {
	cas       CAS
	explainer Explainer
	log       *slog.Logger
}

// NewService builds the solver. explainer may be nil.
func NewService(cas CAS, explainer Explainer, log *slog.Logger) *Service {
	return &Service{cas: cas, explainer: explainer, log: log}
}

func (s *Service) Solve(ctx context.Context, req Request) (*Result, error) {
	op, err := models.ParseOperation(req.OperationType)
	if err != nil {
		return nil, err
	}
	latex := strings.TrimSpace(req.Latex)
	if latex == "" {
		return nil, ErrEmptyExpression
	}

	res := &Result{AISteps: []string{}}
	expr := latex
	if op == models.OpFourier {
		res.Interval = strings.TrimSpace(req.Interval)
		if e, interval, ok := ExtractInterval(latex); ok {
			expr, res.Interval = e, interval
		}
	}
	s.log.DebugContext(ctx, "solve request", "operation", op, "expression", expr, "interval", res.Interval)

	if op == models.OpSolve && calculator.IsNumeric(expr) {
		value, err := calculator.Evaluate(expr)
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", expr, err)
		}
		res.Solution = models.SingleSolution(expr + " = " + value)
		res.Method = MethodNumeric
	} else {
		sol, err := s.cas.Solve(ctx, expr, op, res.Interval)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", op, expr, err)
		}
		res.Solution = sol
		res.Method = MethodCAS
	}

	if req.UseAI == nil || *req.UseAI {
		if s.explainer != nil && s.explainer.Available(ctx) {
			res.AISteps = s.explainer.Explain(ctx, problemDescription(op, expr, latex), res.Solution.Text())
		}
	}
	return res, nil
}

func problemDescription(op models.OperationType, expr, original string) string {
	switch op {
	case models.OpLaplace:
		return "Compute the Laplace transform of " + expr
	case models.OpFourier:
		return "Compute the Fourier series of " + original
	default:
		return original
	}
}
