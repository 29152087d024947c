package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ai-calculator/internal/models"
	"ai-calculator/internal/storage"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { storage.Close(db) })
	return db
}

func newTestService(t *testing.T, opts ...Option) *Service {
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewService(setupTestDB(t), "test-secret", time.Hour, opts...)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRegisterUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "testuser", "test@example.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error on register: %v", err)
	}
	if user.ID == "" || user.PasswordHash == "password123" {
		t.Fatalf("user not stored correctly: %+v", user)
	}

	if _, err := svc.RegisterUser(ctx, "testuser", "other@example.com", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.RegisterUser(ctx, "other", "test@example.com", "password123"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegisterUser_ConcurrentConflict(t *testing.T) {
	tests := []struct {
		name  string
		rival models.User
		want  error
	}{
		{"same username", models.User{ID: "rival-1", Username: "racer", Email: "rival@example.com", PasswordHash: "x"}, ErrUserExists},
		{"same email", models.User{ID: "rival-2", Username: "rival", Email: "racer@example.com", PasswordHash: "x"}, ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "race.db"))
			if err != nil {
				t.Fatalf("open db: %v", err)
			}
			t.Cleanup(func() { storage.Close(db) })

			// the rival row lands after the availability checks but before our insert
			fired := false
			err = db.Callback().Create().Before("gorm:create").Register("test:rival", func(tx *gorm.DB) {
				if fired || tx.Statement.Table != "users" {
					return
				}
				fired = true
				rival := tt.rival
				if err := db.Create(&rival).Error; err != nil {
					t.Errorf("insert rival: %v", err)
				}
			})
			if err != nil {
				t.Fatalf("register callback: %v", err)
			}

			svc := NewService(db, "test-secret", time.Hour, WithBcryptCost(bcrypt.MinCost))
			if _, err := svc.RegisterUser(context.Background(), "racer", "racer@example.com", "password123"); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterUser_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"missing username", "", "a@b.c", "pw", ErrMissingFields},
		{"missing email", "u", "", "pw", ErrMissingFields},
		{"missing password", "u", "a@b.c", "", ErrMissingFields},
		{"bad email", "u", "not-an-email", "pw", ErrInvalidEmail},
		{"long password", "u", "a@b.c", string(bytes.Repeat([]byte("x"), 73)), ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RegisterUser(ctx, tt.username, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthenticateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "authuser", "auth@example.com", "secret"); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}

	token, user, err := svc.AuthenticateUser(ctx, "authuser", "secret")
	if err != nil {
		t.Fatalf("authentication failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty string")
	}
	if user.LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}

	if _, _, err := svc.AuthenticateUser(ctx, "authuser", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials on wrong password, got %v", err)
	}
	if _, _, err := svc.AuthenticateUser(ctx, "wronguser", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials on wrong login, got %v", err)
	}
}

func TestParseToken(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := newTestService(t, WithClock(clock))
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "tokenuser", "token@example.com", "pass"); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	token, user, err := svc.AuthenticateUser(ctx, "tokenuser", "pass")
	if err != nil {
		t.Fatalf("failed to authenticate user: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "tokenuser" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt.Time)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	other := NewService(svc.db, "another-secret", time.Hour)
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestHandlers_RegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/register", RegisterHandler(svc, discard))
	mux.Handle("POST /api/auth/login", LoginHandler(svc, discard))

	body := `{"username":"testuser","email":"t@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201 on register, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("Username already exists")) {
		t.Fatalf("expected duplicate rejection, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"testuser","password":"secret123"}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 on login, got %d", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if !resp.Success || resp.Token == "" || resp.User.Email != "t@example.com" {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"testuser","password":"nope"}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, "mw", "mw@example.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, user, err := svc.AuthenticateUser(ctx, "mw", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var seen Identity
	protected := JWTMiddleware(svc, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/calculations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
	if seen.UserID != user.ID || seen.Username != "mw" {
		t.Fatalf("identity not propagated: %+v", seen)
	}
}
