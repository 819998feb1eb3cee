package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/store"
)

// PublicHandler serves the machine-facing capture endpoints used by landing
// pages and site integrations. These routes sit behind API key auth, not
// session auth: the submitting integration is identified by its key and every
// stored record carries the key's ID.
type PublicHandler struct {
	store *store.Store
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(st *store.Store) *PublicHandler {
	return &PublicHandler{store: st}
}

type leadRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
}

// CreateLead captures a prospect from a public landing page.
// POST /api/public/v1/leads
func (h *PublicHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())
	if key == nil {
		writeError(w, http.StatusUnauthorized, "Chave de API ausente ou malformada")
		return
	}

	var req leadRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.Name == "" && req.Email == "" && req.Phone == "" {
		writeError(w, http.StatusBadRequest, "Informe ao menos nome, e-mail ou telefone")
		return
	}

	lead := &model.Lead{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Source:   req.Source,
		APIKeyID: key.ID,
	}
	if err := h.store.CreateLead(r.Context(), lead); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao registrar lead")
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// CreateSurveyResponse stores an answer set against a public survey slug.
// Answers are accepted as arbitrary JSON and stored verbatim.
// POST /api/public/v1/surveys/{surveySlug}/responses
func (h *PublicHandler) CreateSurveyResponse(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())
	if key == nil {
		writeError(w, http.StatusUnauthorized, "Chave de API ausente ou malformada")
		return
	}

	slug := chi.URLParam(r, "surveySlug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "Identificador da pesquisa ausente")
		return
	}

	var req struct {
		Answers json.RawMessage `json:"answers"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if len(req.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "Respostas são obrigatórias")
		return
	}

	resp := &model.SurveyResponse{
		SurveySlug: slug,
		Answers:    string(req.Answers),
		APIKeyID:   key.ID,
	}
	if err := h.store.CreateSurveyResponse(r.Context(), resp); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao registrar resposta")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ListLeads returns captured leads to office staff, newest first.
// GET /api/v1/leads
func (h *PublicHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.store.ListLeads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar leads")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: leads,
		Meta: &model.ResponseMeta{Count: len(leads)},
	})
}
