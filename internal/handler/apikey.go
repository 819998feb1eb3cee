package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/service"
	"github.com/mandatohub/mandato/internal/store"
)

// APIKeyHandler manages machine credentials. Admin-only routes.
type APIKeyHandler struct {
	store   *store.Store
	authSvc *service.AuthService
}

// NewAPIKeyHandler creates an APIKeyHandler.
func NewAPIKeyHandler(st *store.Store, authSvc *service.AuthService) *APIKeyHandler {
	return &APIKeyHandler{store: st, authSvc: authSvc}
}

type createAPIKeyRequest struct {
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// createAPIKeyResponse carries the plaintext key, shown exactly once.
type createAPIKeyResponse struct {
	ID        int64      `json:"id"`
	Key       string     `json:"api_key"`
	KeyPrefix string     `json:"key_prefix"`
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Create mints a new API key bound to the calling admin's account.
// POST /api/v1/api-keys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Não autenticado")
		return
	}

	var req createAPIKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		writeError(w, http.StatusBadRequest, "Data de expiração no passado")
		return
	}

	plaintext, key, err := h.authSvc.GenerateAPIKey(r.Context(), user.ID, req.Label, req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar chave de API")
		return
	}

	writeJSON(w, http.StatusCreated, createAPIKeyResponse{
		ID:        key.ID,
		Key:       plaintext,
		KeyPrefix: key.KeyPrefix,
		Label:     key.Label,
		ExpiresAt: key.ExpiresAt,
		CreatedAt: key.CreatedAt,
	})
}

// List returns all API keys without the secret material.
// GET /api/v1/api-keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar chaves de API")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: keys,
		Meta: &model.ResponseMeta{Count: len(keys)},
	})
}

// Revoke deactivates an API key by ID. Takes effect on the key's next
// request, since validity is checked against the store every time.
// DELETE /api/v1/api-keys/{keyId}
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "keyId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de chave inválido")
		return
	}

	if err := h.store.RevokeAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chave de API não encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao revogar chave de API")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Usage returns the recent audit trail for one API key.
// GET /api/v1/api-keys/{keyId}/usage
func (h *APIKeyHandler) Usage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "keyId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de chave inválido")
		return
	}

	limit := clampInt(queryInt(r, "limit", 100), 1, 500)
	logs, err := h.store.ListUsageLogs(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar uso da chave")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: logs,
		Meta: &model.ResponseMeta{Count: len(logs), Limit: limit},
	})
}
