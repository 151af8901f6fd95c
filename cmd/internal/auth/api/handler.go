package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/apperr"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/session"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/tokens"
)

// AuthService is the auth lifecycle used by the handlers.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (identity.PublicUser, error)
	Login(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (auth.RefreshResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// SessionManager serves the user-facing session routes.
type SessionManager interface {
	ListSessions(ctx context.Context, userID, currentSessionID string) ([]session.View, error)
	GetCurrentSession(ctx context.Context, sessionID string) (identity.PublicUser, error)
	DeleteSession(ctx context.Context, sessionID, userID string) error
}

// TokenVerifier authenticates access tokens.
type TokenVerifier interface {
	Verify(token string, kind tokens.Kind) (tokens.Payload, error)
}

// Handler wires HTTP routes to the auth service and session manager.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	auth     AuthService
	sessions SessionManager
	tokens   TokenVerifier
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, cfg Config, svc AuthService, sessions SessionManager, verifier TokenVerifier) (*Handler, error) {
	if svc == nil || sessions == nil || verifier == nil {
		return nil, errors.New("authapi: nil dependency")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		auth:     svc,
		sessions: sessions,
		tokens:   verifier,
		validate: newValidator(),
	}, nil
}

// Mount registers the auth and session routes on r under the configured base path.
func (h *Handler) Mount(r chi.Router) {
	if h.cfg.BasePath == "" {
		h.routes(r)
		return
	}
	r.Route(h.cfg.BasePath, h.routes)
}

func (h *Handler) routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.With(h.requireAuth).Post("/logout", h.handleLogout)
	})

	r.Route("/session", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/", h.handleListSessions)
		r.Get("/current", h.handleCurrentSession)
		r.Delete("/{id}", h.handleDeleteSession)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "authapi.register"

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, badBody(op))
		return
	}
	req.trim()
	if err := h.validateRequest(op, req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.auth.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "user registered successfully",
		Data:    u,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "authapi.login"

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, badBody(op))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validateRequest(op, req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: strings.TrimSpace(r.UserAgent()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setAccessCookie(w, res.AccessToken, res.AccessExpiresAt)
	h.setRefreshCookie(w, res.RefreshToken, res.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		Message:     "login successful",
		Data:        res.User,
		MFARequired: res.MFARequired,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "authapi.refresh"

	raw, ok := cookieValue(r, RefreshCookie)
	if !ok {
		h.fail(w, r, apperr.Unauthorized(op, "refresh token missing"))
		return
	}

	res, err := h.auth.Refresh(r.Context(), raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setAccessCookie(w, res.AccessToken, res.AccessExpiresAt)
	if res.Rotated() {
		h.setRefreshCookie(w, res.RefreshToken, res.RefreshExpiresAt)
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Message: "token refreshed",
		Rotated: res.Rotated(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), p.SessionID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	views, err := h.sessions.ListSessions(r.Context(), p.UserID, p.SessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: toSessionResponses(views)})
}

func (h *Handler) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	u, err := h.sessions.GetCurrentSession(r.Context(), p.SessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currentSessionResponse{User: u})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.sessions.DeleteSession(r.Context(), id, p.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "session deleted"})
}
