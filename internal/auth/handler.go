package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"ai-calculator/internal/respond"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func RegisterHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		user, err := svc.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingFields):
				respond.Error(w, http.StatusBadRequest, "Missing required fields")
			case errors.Is(err, ErrUserExists):
				respond.Error(w, http.StatusBadRequest, "Username already exists")
			case errors.Is(err, ErrEmailExists):
				respond.Error(w, http.StatusBadRequest, "Email already registered")
			case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrPasswordTooLong):
				respond.Error(w, http.StatusBadRequest, err.Error())
			default:
				log.ErrorContext(r.Context(), "register failed", "username", req.Username, "error", err)
				respond.Error(w, http.StatusInternalServerError, "Error registering user")
			}
			return
		}
		log.InfoContext(r.Context(), "user registered", "username", user.Username)
		respond.JSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "User registered successfully",
			"user":    user.Profile(),
		})
	}
}

func LoginHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		token, user, err := svc.AuthenticateUser(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingFields):
				respond.Error(w, http.StatusBadRequest, "Missing required fields")
			case errors.Is(err, ErrInvalidCredentials):
				respond.Error(w, http.StatusUnauthorized, "Invalid username or password")
			default:
				log.ErrorContext(r.Context(), "login failed", "username", req.Username, "error", err)
				respond.Error(w, http.StatusInternalServerError, "Error authenticating user")
			}
			return
		}
		log.InfoContext(r.Context(), "user authenticated", "username", user.Username)
		respond.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"token":   token,
			"user":    user.Profile(),
		})
	}
}
