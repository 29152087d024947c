package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"ai-calculator/internal/models"
)

var (
	// ErrSolverUnavailable means the CAS could not be reached in time.
	ErrSolverUnavailable = errors.New("math engine unavailable")
	ErrSolverRejected    = errors.New("math engine could not solve the expression")
	ErrEmptySolution     = errors.New("math engine returned no solution")
)

// Remote is the HTTP client of the external CAS.
type Remote struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: baseURL,
		timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}
}

type casRequest struct {
	Expression    string               `json:"expression"`
	OperationType models.OperationType `json:"operation_type"`
	Interval      string               `json:"interval,omitempty"`
}

type casResponse struct {
	Solution *models.Solution `json:"solution"`
	Error    string           `json:"error"`
}

// Solve posts the expression to {baseURL}/solve.
func (c *Remote) Solve(ctx context.Context, expr string, op models.OperationType, interval string) (models.Solution, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(casRequest{Expression: expr, OperationType: op, Interval: interval})
	if err != nil {
		return models.Solution{}, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/solve", bytes.NewReader(data))
	if err != nil {
		return models.Solution{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil || isConnectionError(err) {
			return models.Solution{}, fmt.Errorf("%w: %v", ErrSolverUnavailable, err)
		}
		return models.Solution{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Solution{}, fmt.Errorf("reading response: %w", err)
	}

	var out casResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return models.Solution{}, fmt.Errorf("%w: %s", ErrSolverRejected, msg)
	}
	if decodeErr != nil {
		return models.Solution{}, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if out.Error != "" {
		return models.Solution{}, fmt.Errorf("%w: %s", ErrSolverRejected, out.Error)
	}
	if out.Solution == nil || out.Solution.IsEmpty() {
		return models.Solution{}, ErrEmptySolution
	}
	return *out.Solution, nil
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
