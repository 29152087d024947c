// Package web serves the HTML pages. The calculator and dashboard pages are
// gated on the authToken cookie; the API does its own bearer check.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"ai-calculator/internal/markup"
	"ai-calculator/internal/models"
	"ai-calculator/internal/respond"
)

const CookieName = "authToken"

//go:embed templates/*.html static/*
var content embed.FS

// TokenValidator reports whether a session token is still good.
type TokenValidator func(token string) error

type page struct {
	Title string
	Mode  string
}

type Pages struct {
	tmpl     map[string]*template.Template
	validate TokenValidator
	log      *slog.Logger
}

func New(validate TokenValidator, log *slog.Logger) (*Pages, error) {
	p := &Pages{tmpl: make(map[string]*template.Template), validate: validate, log: log}
	for _, name := range []string{"index.html", "dashboard.html", "auth.html"} {
		t, err := template.ParseFS(content, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.tmpl[name] = t
	}
	return p, nil
}

func (p *Pages) Register(mux *http.ServeMux) {
	static, _ := fs.Sub(content, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.Handle("GET /{$}", p.requireSession(p.render("index.html", page{Title: "Calculator"})))
	mux.Handle("GET /dashboard", p.requireSession(p.render("dashboard.html", page{Title: "My calculations"})))
	mux.Handle("GET /auth", p.render("auth.html", page{Title: "Sign in", Mode: "login"}))
	mux.Handle("GET /login", p.render("auth.html", page{Title: "Sign in", Mode: "login"}))
	mux.Handle("GET /register", p.render("auth.html", page{Title: "Create account", Mode: "register"}))
	mux.HandleFunc("GET /logout", p.logout)
	mux.HandleFunc("POST /api/markup", p.convert)
}

type markupRequest struct {
	Text          string `json:"text"`
	OperationType string `json:"operation_type"`
}

// convert runs the text converter for the calculator page, so the page and
// the CLI send the solver the same LaTeX.
func (p *Pages) convert(w http.ResponseWriter, r *http.Request) {
	var req markupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	op, err := models.ParseOperation(req.OperationType)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Unsupported operation type")
		return
	}
	res := markup.FromText(req.Text, op)
	if strings.TrimSpace(res.Latex) == "" {
		respond.Error(w, http.StatusBadRequest, "No expression to solve")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"latex":    res.Latex,
		"interval": res.Interval(),
	})
}

// requireSession redirects to /auth unless the request carries a valid
// authToken cookie. An invalid cookie is cleared on the way out.
func (p *Pages) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, "/auth", http.StatusFound)
			return
		}
		if p.validate != nil {
			if err := p.validate(c.Value); err != nil {
				p.log.DebugContext(r.Context(), "rejected session cookie", "error", err)
				clearCookie(w)
				http.Redirect(w, r, "/auth", http.StatusFound)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Pages) render(name string, data page) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := p.tmpl[name].ExecuteTemplate(&buf, "layout", data); err != nil {
			p.log.ErrorContext(r.Context(), "render page", "page", name, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		buf.WriteTo(w)
	})
}

func (p *Pages) logout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w)
	http.Redirect(w, r, "/auth", http.StatusFound)
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
}
