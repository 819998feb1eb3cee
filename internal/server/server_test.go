package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/service"
	"github.com/mandatohub/mandato/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *service.AuthService) {
	t.Helper()

	st, err := store.NewStore(store.Options{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authSvc := service.NewAuthService(st, "test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := DefaultConfig()
	cfg.RateLimitMax = 100
	cfg.RateLimitWindow = 100 * time.Second
	cfg.LoginRatePerMinute = 1000 // out of the way for functional tests

	srv := New(cfg, st, authSvc, logger)
	t.Cleanup(srv.Close)
	return srv, st, authSvc
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func registerUser(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr := doJSON(t, srv, "POST", "/api/v1/auth/register", "", map[string]string{
		"name":     "Teste",
		"email":    email,
		"password": "senha-segura",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, "GET", "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, "GET", "/readyz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	body := errorBody(t, rr)
	if body["error"] != "Token não fornecido" {
		t.Errorf("error = %v", body["error"])
	}
	if _, hasCode := body["code"]; hasCode {
		t.Errorf("unexpected code field in body: %v", body)
	}
}

func TestTokenForDeletedUser(t *testing.T) {
	srv, st, _ := newTestServer(t)

	token := registerUser(t, srv, "fugaz@gabinete.br")
	users, err := st.ListUsers(context.Background())
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers: %v (%d users)", err, len(users))
	}
	if err := st.DeleteUser(context.Background(), users[0].ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	rr := doJSON(t, srv, "GET", "/api/v1/auth/me", token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if body := errorBody(t, rr); body["error"] != "Usuário não encontrado" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	srv, st, _ := newTestServer(t)

	adminToken := registerUser(t, srv, "chefe@gabinete.br") // first account is admin
	staffToken := registerUser(t, srv, "joao@gabinete.br")  // assessor

	// The assessor's old token starts working on admin routes the moment the
	// stored role changes, because the role is re-read per request.
	rr := doJSON(t, srv, "GET", "/api/v1/users", staffToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("before promotion: status = %d, want 403", rr.Code)
	}

	staff, err := st.GetUserByEmail(context.Background(), "joao@gabinete.br")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	rr = doJSON(t, srv, "PUT", fmt.Sprintf("/api/v1/users/%d/role", staff.ID), adminToken,
		map[string]string{"role": model.RoleAdmin})
	if rr.Code != http.StatusOK {
		t.Fatalf("promote: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, "GET", "/api/v1/users", staffToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("after promotion: status = %d, want 200 with the same token", rr.Code)
	}
}

func TestAssessorOnAdminRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	registerUser(t, srv, "chefe@gabinete.br")
	staffToken := registerUser(t, srv, "assessor@gabinete.br")

	rr := doJSON(t, srv, "GET", "/api/v1/users", staffToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	body := errorBody(t, rr)
	if body["code"] != "FORBIDDEN" {
		t.Errorf("code = %v, want FORBIDDEN", body["code"])
	}
	if body["error"] != "Acesso negado" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestAssessorPermissionDefaults(t *testing.T) {
	srv, _, _ := newTestServer(t)

	registerUser(t, srv, "chefe@gabinete.br")
	staffToken := registerUser(t, srv, "assessor@gabinete.br")

	// Assessor defaults include contatos, demandas, agenda.
	rr := doJSON(t, srv, "GET", "/api/v1/contacts", staffToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("contacts: status = %d, want 200", rr.Code)
	}

	// campanhas is not in the assessor defaults.
	rr = doJSON(t, srv, "GET", "/api/v1/leads", staffToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("leads: status = %d, want 403", rr.Code)
	}
	if body := errorBody(t, rr); body["code"] != "PERMISSION_DENIED" {
		t.Errorf("code = %v, want PERMISSION_DENIED", body["code"])
	}
}

func TestStaffCRUDFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token := registerUser(t, srv, "chefe@gabinete.br")

	rr := doJSON(t, srv, "POST", "/api/v1/contacts", token, map[string]string{
		"name": "Dona Maria", "neighborhood": "Centro",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create contact: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, "POST", "/api/v1/demands", token, map[string]string{
		"title": "Iluminação da praça",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create demand: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var demand model.Demand
	if err := json.NewDecoder(rr.Body).Decode(&demand); err != nil {
		t.Fatalf("decode demand: %v", err)
	}
	if demand.Status != model.DemandOpen {
		t.Errorf("new demand status = %q, want aberta", demand.Status)
	}

	rr = doJSON(t, srv, "PATCH", fmt.Sprintf("/api/v1/demands/%d/status", demand.ID), token,
		map[string]string{"status": model.DemandInProgress})
	if rr.Code != http.StatusOK {
		t.Fatalf("move demand: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, "PATCH", fmt.Sprintf("/api/v1/demands/%d/status", demand.ID), token,
		map[string]string{"status": "inventada"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad status: status = %d, want 400", rr.Code)
	}
}

func createPublicKey(t *testing.T, srv *Server, adminToken string) string {
	t.Helper()
	rr := doJSON(t, srv, "POST", "/api/v1/api-keys", adminToken, map[string]string{
		"label": "landing page",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create key: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Key string `json:"api_key"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode key response: %v", err)
	}
	if !strings.HasPrefix(resp.Key, model.APIKeyPrefix) {
		t.Fatalf("key %q lacks the pk_ prefix", resp.Key)
	}
	return resp.Key
}

func TestPublicAPIRequiresKey(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doJSON(t, srv, "POST", "/api/public/v1/leads", "", map[string]string{"name": "x"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest("POST", "/api/public/v1/leads", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Authorization", "Bearer sk_wrongprefix")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong prefix: status = %d, want 401", rec.Code)
	}
}

func TestPublicLeadCapture(t *testing.T) {
	srv, st, _ := newTestServer(t)
	adminToken := registerUser(t, srv, "chefe@gabinete.br")
	key := createPublicKey(t, srv, adminToken)

	rr := doJSON(t, srv, "POST", "/api/public/v1/leads", key, map[string]string{
		"name": "Visitante", "email": "v@site.br", "source": "landing",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	leads, err := st.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if len(leads) != 1 || leads[0].APIKeyID == 0 {
		t.Fatalf("leads = %+v, want one lead attributed to the key", leads)
	}

	rr = doJSON(t, srv, "POST", "/api/public/v1/surveys/saude-no-bairro/responses", key,
		map[string]interface{}{"answers": map[string]int{"nota": 8}})
	if rr.Code != http.StatusCreated {
		t.Fatalf("survey: status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestPublicAPIRateLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)
	adminToken := registerUser(t, srv, "chefe@gabinete.br")
	key := createPublicKey(t, srv, adminToken)

	var rr *httptest.ResponseRecorder
	for i := 0; i < 101; i++ {
		rr = doJSON(t, srv, "POST", "/api/public/v1/leads", key, map[string]string{"name": "x"})
		if i < 100 && rr.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited early", i+1)
		}
	}

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("request 101: status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", rr.Header().Get("X-RateLimit-Remaining"))
	}
	body := errorBody(t, rr)
	if body["error"] != "Limite de requisições excedido" {
		t.Errorf("error = %v", body["error"])
	}
	if ra, ok := body["retryAfter"].(float64); !ok || ra < 1 {
		t.Errorf("retryAfter = %v, want a positive number", body["retryAfter"])
	}
}

func TestRevokedKeyStopsOnNextRequest(t *testing.T) {
	srv, st, _ := newTestServer(t)
	adminToken := registerUser(t, srv, "chefe@gabinete.br")
	key := createPublicKey(t, srv, adminToken)

	rr := doJSON(t, srv, "POST", "/api/public/v1/leads", key, map[string]string{"name": "x"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("before revoke: status = %d", rr.Code)
	}

	keys, err := st.ListAPIKeys(context.Background())
	if err != nil || len(keys) != 1 {
		t.Fatalf("ListAPIKeys: %v (%d keys)", err, len(keys))
	}
	rr = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/v1/api-keys/%d", keys[0].ID), adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("revoke: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, "POST", "/api/public/v1/leads", key, map[string]string{"name": "x"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("after revoke: status = %d, want 401", rr.Code)
	}
}

func TestUsageTrailPersisted(t *testing.T) {
	srv, st, _ := newTestServer(t)
	adminToken := registerUser(t, srv, "chefe@gabinete.br")
	key := createPublicKey(t, srv, adminToken)

	for i := 0; i < 3; i++ {
		doJSON(t, srv, "POST", "/api/public/v1/leads", key, map[string]string{"name": "x"})
	}
	srv.Close() // drain the async recorder

	keys, err := st.ListAPIKeys(context.Background())
	if err != nil || len(keys) != 1 {
		t.Fatalf("ListAPIKeys: %v (%d keys)", err, len(keys))
	}
	logs, err := st.ListUsageLogs(context.Background(), keys[0].ID, 10)
	if err != nil {
		t.Fatalf("ListUsageLogs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("usage trail has %d entries, want 3", len(logs))
	}
	if logs[0].StatusCode != http.StatusCreated || logs[0].Method != "POST" {
		t.Errorf("log entry = %+v", logs[0])
	}
}

func TestLoginFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)
	registerUser(t, srv, "chefe@gabinete.br")

	rr := doJSON(t, srv, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "chefe@gabinete.br", "password": "senha-segura",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.Token == "" {
		t.Errorf("login response = %+v", resp)
	}
	if want := int((30 * 24 * time.Hour).Seconds()); resp.ExpiresIn != want {
		t.Errorf("expires_in = %d, want %d (30 days)", resp.ExpiresIn, want)
	}

	rr = doJSON(t, srv, "GET", "/api/v1/auth/me", resp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "chefe@gabinete.br", "password": "senha-errada",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", rr.Code)
	}
}
