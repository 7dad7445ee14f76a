package httptransport

import (
	"fmt"
	"net/http"
	"strings"

	"learnhub/internal/account"
	"learnhub/internal/auth/gate"
	"learnhub/internal/auth/session"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/platform/httputil"
)

type registrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registrationResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ActivationToken string `json:"activation_token"`
}

type activationRequest struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activation_code"`
	Password        string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialAuthRequest struct {
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Avatar account.Avatar `json:"avatar"`
}

type accountResponse struct {
	Success bool                `json:"success"`
	User    account.AccountView `json:"user"`
}

type sessionResponse struct {
	Success bool                `json:"success"`
	User    account.AccountView `json:"user"`
	session.TokenPair
}

type refreshResponse struct {
	Success bool `json:"success"`
	session.TokenPair
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleRegistration sends the activation email. The code itself only
// travels by email.
func (h *Handler) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !h.decode(w, r, &req) {
		return
	}
	tok, _, err := h.activation.BeginActivation(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.fail(w, r, "registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registrationResponse{
		Success:         true,
		Message:         fmt.Sprintf("Please check your email: %s to activate your account", strings.ToLower(strings.TrimSpace(req.Email))),
		ActivationToken: tok,
	})
}

func (h *Handler) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	var req activationRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.activation.CompleteActivation(r.Context(), req.ActivationToken, req.ActivationCode, req.Password)
	if err != nil {
		h.fail(w, r, "activation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, accountResponse{Success: true, User: a.View()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	pair, view, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	h.setTokenCookies(w, pair)
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{Success: true, User: view, TokenPair: pair})
}

func (h *Handler) handleSocialAuth(w http.ResponseWriter, r *http.Request) {
	var req socialAuthRequest
	if !h.decode(w, r, &req) {
		return
	}
	pair, view, err := h.sessions.SocialAuth(r.Context(), session.SocialProfile{
		Email:  req.Email,
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		h.fail(w, r, "social auth", err)
		return
	}
	h.setTokenCookies(w, pair)
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{Success: true, User: view, TokenPair: pair})
}

// handleRefresh reads the refresh token from its cookie, falling back to the
// X-Refresh-Token header for non-browser clients.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.Header.Get(refreshTokenHeader)
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		refreshToken = c.Value
	}
	if refreshToken == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "missing refresh token"))
		return
	}
	pair, err := h.sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.fail(w, r, "refresh", err)
		return
	}
	h.setTokenCookies(w, pair)
	httputil.WriteJSON(w, http.StatusOK, refreshResponse{Success: true, TokenPair: pair})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	view, ok := gate.AccountFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return
	}
	if err := h.sessions.Logout(r.Context(), view.ID); err != nil {
		h.fail(w, r, "logout", err)
		return
	}
	h.clearTokenCookies(w)
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logged out successfully"})
}
