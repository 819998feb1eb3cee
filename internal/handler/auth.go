package handler

import (
	"errors"
	"net/http"

	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/service"
)

// AuthHandler serves registration, login, and the current-session endpoint.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int         `json:"expires_in"`
	User      interface{} `json:"user"`
}

// Register creates a new account. The first account of an office becomes the
// admin; later accounts start as assessor.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "E-mail e senha são obrigatórios")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "A senha deve ter pelo menos 8 caracteres")
		return
	}

	user, token, err := h.authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "E-mail já cadastrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao criar usuário")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(service.TokenTTL.Seconds()),
		User:      user,
	})
}

// Login authenticates an email/password pair and issues a session token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "E-mail e senha são obrigatórios")
		return
	}

	user, token, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Credenciais inválidas")
		case errors.Is(err, service.ErrUserDisabled):
			writeError(w, http.StatusUnauthorized, "Usuário desativado")
		default:
			writeError(w, http.StatusInternalServerError, "Erro ao autenticar")
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(service.TokenTTL.Seconds()),
		User:      user,
	})
}

// Me returns the authenticated user together with the effective permission
// set (explicit override or role defaults).
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Não autenticado")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":        user,
		"permissions": user.EffectivePermissions(),
	})
}
