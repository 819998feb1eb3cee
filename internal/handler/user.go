package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/store"
)

// UserHandler manages the office's user accounts. All routes are admin-only;
// the role guard runs before these handlers.
type UserHandler struct {
	store *store.Store
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(st *store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// List returns all user accounts.
// GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar usuários")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: users,
		Meta: &model.ResponseMeta{Count: len(users)},
	})
}

// Create adds a user account with an explicit role.
// POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
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
	if req.Role == "" {
		req.Role = model.RoleAssessor
	}
	if !model.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Papel inválido: "+req.Role)
		return
	}

	if _, err := h.store.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "E-mail já cadastrado")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar usuário")
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar usuário")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// UpdateRole changes a user's role. The change is visible on the user's very
// next request: the session middleware re-reads the stored role every time.
// PUT /api/v1/users/{userId}/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "userId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de usuário inválido")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if !model.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Papel inválido: "+req.Role)
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar papel")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// UpdatePermissions stores an explicit permission override for a user, or
// clears it (falling back to role defaults) when the body is {"reset": true}.
// PUT /api/v1/users/{userId}/permissions
func (h *UserHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "userId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de usuário inválido")
		return
	}

	var req struct {
		Reset       bool               `json:"reset"`
		Permissions *model.Permissions `json:"permissions"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	var perms *model.Permissions
	if !req.Reset {
		if req.Permissions == nil {
			writeError(w, http.StatusBadRequest, "Permissões são obrigatórias")
			return
		}
		perms = req.Permissions
	}

	if err := h.store.UpdateUserPermissions(r.Context(), id, perms); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar permissões")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Delete removes a user account. Any outstanding session tokens for the
// account stop working on their next request.
// DELETE /api/v1/users/{userId}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "userId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de usuário inválido")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao remover usuário")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
