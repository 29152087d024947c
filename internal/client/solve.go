package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ai-calculator/internal/models"
)

const autoTitleLayout = "2006-01-02 15:04:05"

// SolveResult is one answered problem. Saved is set when the result was
// persisted automatically; SaveErr holds the reason when that failed.
type SolveResult struct {
	Latex     string
	Operation models.OperationType
	Interval  string
	Solution  models.Solution
	Method    string
	Steps     []string
	Saved     *models.Calculation
	SaveErr   error
}

// Explanation is the step list in the stored form, one step per line.
func (r *SolveResult) Explanation() string {
	return strings.Join(r.Steps, "\n")
}

type solveResponse struct {
	Error    string          `json:"error"`
	Solution models.Solution `json:"solution"`
	Method   string          `json:"solution_method"`
	Interval string          `json:"interval"`
	AISteps  []string        `json:"ai_steps"`
}

// Solve sends the markup to the solver. A signed-in user gets the result
// saved right away under "<Operation> - <timestamp>".
func (c *Client) Solve(ctx context.Context, latex string, op models.OperationType, interval string) (*SolveResult, error) {
	release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := c.solve(ctx, latex, op, interval)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Session(); err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			res.SaveErr = err
		}
		return res, nil
	}
	title := res.Operation.Label() + " - " + c.now().Format(autoTitleLayout)
	res.Saved, res.SaveErr = c.save(ctx, res, title)
	return res, nil
}

// SolveAndSave solves and stores the result under title in one busy
// period. It requires a session up front.
func (c *Client) SolveAndSave(ctx context.Context, latex string, op models.OperationType, interval, title string) (*SolveResult, error) {
	release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := c.store.Session(); err != nil {
		return nil, err
	}
	res, err := c.solve(ctx, latex, op, interval)
	if err != nil {
		return nil, err
	}
	res.Saved, res.SaveErr = c.save(ctx, res, strings.TrimSpace(title))
	return res, res.SaveErr
}

func (c *Client) solve(ctx context.Context, latex string, op models.OperationType, interval string) (*SolveResult, error) {
	latex = strings.TrimSpace(latex)
	if latex == "" {
		return nil, fmt.Errorf("%w: nothing to solve", ErrSolveFailed)
	}
	if op == "" {
		op = models.OpSolve
	}

	body := map[string]any{"latex": latex, "operation_type": op}
	if interval != "" {
		body["interval"] = interval
	}
	var resp solveResponse
	if err := c.do(ctx, http.MethodPost, "/api/solve", body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolveFailed, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSolveFailed, resp.Error)
	}
	if resp.Solution.IsEmpty() {
		return nil, fmt.Errorf("%w: no solution returned", ErrSolveFailed)
	}

	res := &SolveResult{
		Latex:     latex,
		Operation: op,
		Interval:  resp.Interval,
		Solution:  resp.Solution,
		Method:    resp.Method,
		Steps:     resp.AISteps,
	}
	return res, nil
}

// Save stores res under title. An empty title lets the server pick one.
func (c *Client) Save(ctx context.Context, res *SolveResult, title string) (*models.Calculation, error) {
	release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := c.store.Session(); err != nil {
		return nil, err
	}
	return c.save(ctx, res, strings.TrimSpace(title))
}

func (c *Client) save(ctx context.Context, res *SolveResult, title string) (*models.Calculation, error) {
	body := map[string]any{
		"latex_input":    res.Latex,
		"operation_type": res.Operation,
		"solution":       res.Solution,
		"ai_explanation": res.Explanation(),
	}
	if title != "" {
		body["title"] = title
	}
	var resp struct {
		Calculation models.Calculation `json:"calculation"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/calculations", body, &resp); err != nil {
		return nil, fmt.Errorf("error saving calculation: %w", err)
	}
	return &resp.Calculation, nil
}
