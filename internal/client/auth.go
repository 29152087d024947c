package client

import (
	"context"
	"fmt"
	"net/http"

	"ai-calculator/internal/models"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
)

type loginResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    models.Profile `json:"user"`
}

// Login signs in and stores the session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, loginPath, map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login failed: server returned no token")
	}
	sess := Session{Token: resp.Token, User: resp.User}
	if err := c.store.SaveSession(sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Register creates an account and returns the server's message. It does not
// sign in.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, registerPath, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	return resp.Message, nil
}

// Logout forgets the session and the cookie.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// RequireSession returns the current session or ErrNotAuthenticated.
func (c *Client) RequireSession() (*Session, error) {
	return c.store.Session()
}
