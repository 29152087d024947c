package main_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ai-calculator/internal/auth"
	"ai-calculator/internal/calculations"
	"ai-calculator/internal/client"
	"ai-calculator/internal/explain"
	"ai-calculator/internal/models"
	"ai-calculator/internal/server"
	"ai-calculator/internal/solver"
	"ai-calculator/internal/storage"
	"ai-calculator/internal/web"
)

type stubCAS struct{}

func (stubCAS) Solve(_ context.Context, expr string, op models.OperationType, interval string) (models.Solution, error) {
	switch op {
	case models.OpLaplace:
		return models.SingleSolution(`\frac{2}{(s+3)^{3}}`), nil
	case models.OpFourier:
		return models.SingleSolution(`\frac{\pi^{2}}{3} + \sum_{n=1}^{\infty} \frac{4 (-1)^{n}}{n^{2}} \cos(n x)`), nil
	}
	return models.ListSolution("x=1", "x=-1"), nil
}

type stubLLM struct {
	calls atomic.Int32
}

func (l *stubLLM) Generate(context.Context, string) (string, error) {
	l.calls.Add(1)
	return "1. Factor **the difference of squares**\n\n2. Read off $x = \\pm 1$", nil
}

func (l *stubLLM) Available(context.Context) bool { return true }

func SetupServer(t *testing.T) (*httptest.Server, *stubLLM) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory db: %v", err)
	}
	t.Cleanup(func() { storage.Close(db) })

	authSvc := auth.NewService(db, "integration-secret", time.Hour, auth.WithBcryptCost(bcrypt.MinCost))
	pages, err := web.New(func(token string) error {
		_, err := authSvc.ParseToken(token)
		return err
	}, log)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	llm := &stubLLM{}
	exp := explain.NewService(llm, explain.NewDBCache(db, time.Hour), log)

	srv := httptest.NewServer(server.New(server.Deps{
		Auth:         authSvc,
		Calculations: calculations.NewService(calculations.NewRepository(db)),
		Solver:       solver.NewService(stubCAS{}, exp, log),
		Explainer:    exp,
		Pages:        pages,
		Log:          log,
	}))
	t.Cleanup(srv.Close)
	return srv, llm
}

func newClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	return client.New(srv.URL, client.NewStoreAt(t.TempDir()))
}

// pageStatus fetches a page with the client's cookies and reports the status
// and redirect target without following it.
func pageStatus(t *testing.T, srv *httptest.Server, c *client.Client, path string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	cookies, err := c.Store().Cookies()
	if err != nil {
		t.Fatalf("read cookies: %v", err)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	hc := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Location")
}

func TestIntegration_FullFlow(t *testing.T) {
	srv, llm := SetupServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	if code, loc := pageStatus(t, srv, c, "/"); code != http.StatusFound || loc != "/auth" {
		t.Fatalf("expected redirect to /auth before login, got %d %q", code, loc)
	}

	if _, err := c.Register(ctx, "user1", "user1@example.com", "pass123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := c.RequireSession(); !errors.Is(err, client.ErrNotAuthenticated) {
		t.Fatalf("register must not sign in, got %v", err)
	}
	sess, err := c.Login(ctx, "user1", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if sess.Token == "" || sess.User.Email != "user1@example.com" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if code, _ := pageStatus(t, srv, c, "/dashboard"); code != http.StatusOK {
		t.Fatalf("expected dashboard with session cookie, got %d", code)
	}

	res, err := c.Solve(ctx, "x^{2} - 1 = 0", models.OpSolve, "")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if len(res.Solution.Values) != 2 || res.Method != solver.MethodCAS {
		t.Fatalf("unexpected solution: %+v", res)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("expected 2 explanation steps, got %q", res.Steps)
	}
	if res.SaveErr != nil || res.Saved == nil {
		t.Fatalf("expected auto-save, got %v", res.SaveErr)
	}
	if res.Saved.AIExplanation != res.Explanation() {
		t.Fatalf("explanation not saved: %q", res.Saved.AIExplanation)
	}

	// same problem again is answered from the explanation cache
	if _, err := c.Solve(ctx, "x^{2} - 1 = 0", models.OpSolve, ""); err != nil {
		t.Fatalf("second solve failed: %v", err)
	}
	if n := llm.calls.Load(); n != 1 {
		t.Fatalf("expected one LLM call, got %d", n)
	}

	laplace, err := c.SolveAndSave(ctx, `t^{2} e^{-3 t}`, models.OpLaplace, "", "Laplace of t^2 e^-3t")
	if err != nil {
		t.Fatalf("solve and save failed: %v", err)
	}

	dash := c.Dashboard()
	items, err := dash.Load(ctx, client.SortType)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 || items[0].ID != laplace.Saved.ID {
		t.Fatalf("expected laplace first of 3 when sorted by type, got %+v", items)
	}

	dir := t.TempDir()
	exp, err := dash.ExportPDF(ctx, laplace.Saved.ID, dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if filepath.Base(exp.PDF) != "Laplace_of_t^2_e^-3t.pdf" {
		t.Fatalf("unexpected pdf name %s", exp.PDF)
	}
	blob, err := os.ReadFile(exp.PDF)
	if err != nil || len(blob) < 5 || string(blob[:5]) != "%PDF-" {
		t.Fatalf("pdf not written: %v", err)
	}

	if err := dash.Delete(ctx, res.Saved.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	items, err = dash.Load(ctx, client.SortNewest)
	if err != nil {
		t.Fatalf("relist failed: %v", err)
	}
	for _, it := range items {
		if it.ID == res.Saved.ID {
			t.Fatalf("deleted calculation %s still listed", it.ID)
		}
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := c.RequireSession(); !errors.Is(err, client.ErrNotAuthenticated) {
		t.Fatalf("expected no session after logout, got %v", err)
	}
	if code, loc := pageStatus(t, srv, c, "/"); code != http.StatusFound || loc != "/auth" {
		t.Fatalf("expected redirect to /auth after logout, got %d %q", code, loc)
	}
}

func TestIntegration_UnauthorizedCalculations(t *testing.T) {
	srv, _ := SetupServer(t)

	resp, err := http.Get(srv.URL + "/api/calculations")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestIntegration_InvalidLogin(t *testing.T) {
	srv, _ := SetupServer(t)
	c := newClient(t, srv)

	_, err := c.Login(context.Background(), "nonexistent", "pass")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid login, got %v", err)
	}
}

func TestIntegration_InvalidRegister(t *testing.T) {
	srv, _ := SetupServer(t)
	c := newClient(t, srv)

	_, err := c.Register(context.Background(), "", "a@b.c", "pass")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty username, got %v", err)
	}
}

func TestIntegration_AnonymousSolveIsNotSaved(t *testing.T) {
	srv, _ := SetupServer(t)
	c := newClient(t, srv)

	res, err := c.Solve(context.Background(), `\frac{1}{4}+0.5`, models.OpSolve, "")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if res.Method != solver.MethodNumeric || res.Solution.Values[0] != `\frac{1}{4}+0.5 = 0.75` {
		t.Fatalf("unexpected numeric result: %+v", res)
	}
	if res.Saved != nil || res.SaveErr != nil {
		t.Fatalf("anonymous solve must not save: %+v", res)
	}
}
