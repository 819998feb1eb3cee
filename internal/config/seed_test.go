package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/service"
	"github.com/mandatohub/mandato/internal/store"
)

const seedYAML = `
users:
  - name: Chefe de Gabinete
    email: chefe@gabinete.br
    password: ${SEED_TEST_PASSWORD}
    role: admin
  - name: João
    email: joao@gabinete.br
    password: outra-senha
api_keys:
  - label: landing page
    owner_email: chefe@gabinete.br
    expires_in: 8760h
`

func writeSeedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "office.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func newSeedFixture(t *testing.T) (*store.Store, *service.AuthService) {
	t.Helper()
	st, err := store.NewStore(store.Options{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, service.NewAuthService(st, "seed-test-secret")
}

func TestSeedFileExpandsEnv(t *testing.T) {
	t.Setenv("SEED_TEST_PASSWORD", "senha-do-ambiente")

	sf, err := LoadSeedFile(writeSeedFile(t))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if sf.Users[0].Password != "senha-do-ambiente" {
		t.Errorf("password = %q, want the env value", sf.Users[0].Password)
	}
}

func TestSeedApplyIsIdempotent(t *testing.T) {
	t.Setenv("SEED_TEST_PASSWORD", "senha-segura")
	st, authSvc := newSeedFixture(t)
	ctx := context.Background()

	sf, err := LoadSeedFile(writeSeedFile(t))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	first, err := sf.Apply(ctx, st, authSvc)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if first.UsersCreated != 2 || first.KeysCreated != 1 {
		t.Fatalf("first Apply = %+v, want 2 users and 1 key", first)
	}
	plaintext, ok := first.NewKeys["landing page"]
	if !ok || !strings.HasPrefix(plaintext, model.APIKeyPrefix) {
		t.Fatalf("NewKeys = %+v, want the plaintext for the new key", first.NewKeys)
	}

	second, err := sf.Apply(ctx, st, authSvc)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if second.UsersCreated != 0 || second.KeysCreated != 0 || len(second.NewKeys) != 0 {
		t.Fatalf("second Apply = %+v, want a no-op", second)
	}

	chefe, err := st.GetUserByEmail(ctx, "chefe@gabinete.br")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if chefe.Role != model.RoleAdmin {
		t.Errorf("chefe role = %q, want admin", chefe.Role)
	}
	joao, err := st.GetUserByEmail(ctx, "joao@gabinete.br")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if joao.Role != model.RoleAssessor {
		t.Errorf("joão role = %q, want the assessor default", joao.Role)
	}

	// The created key works end to end.
	if _, err := authSvc.ValidateAPIKey(ctx, plaintext); err != nil {
		t.Fatalf("ValidateAPIKey on seeded key: %v", err)
	}
}

func TestSeedValidation(t *testing.T) {
	tests := []struct {
		name string
		sf   SeedFile
	}{
		{"missing email", SeedFile{Users: []SeedUser{{Password: "x"}}}},
		{"missing password", SeedFile{Users: []SeedUser{{Email: "a@b.c"}}}},
		{"bad role", SeedFile{Users: []SeedUser{{Email: "a@b.c", Password: "x", Role: "estagiario"}}}},
		{"key without label", SeedFile{Keys: []SeedAPIKey{{OwnerEmail: "a@b.c"}}}},
		{"key without owner", SeedFile{Keys: []SeedAPIKey{{Label: "x"}}}},
		{"bad expiry", SeedFile{Keys: []SeedAPIKey{{Label: "x", OwnerEmail: "a@b.c", ExpiresIn: "two weeks"}}}},
	}

	for _, tt := range tests {
		if err := tt.sf.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
