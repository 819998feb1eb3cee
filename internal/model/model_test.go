package model

import (
	"encoding/json"
	"testing"
)

func TestRoleLevelOrdering(t *testing.T) {
	if !(RoleLevel(RoleAssessor) < RoleLevel(RoleCoordenador) &&
		RoleLevel(RoleCoordenador) < RoleLevel(RoleAdmin)) {
		t.Fatal("role levels must be strictly increasing: assessor < coordenador < admin")
	}
}

func TestRoleLevelUnknownSinksToLowest(t *testing.T) {
	for _, role := range []string{"", "estagiario", "ADMIN", "root"} {
		if got := RoleLevel(role); got != RoleLevel(RoleAssessor) {
			t.Errorf("RoleLevel(%q) = %d, want the assessor level", role, got)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAssessor, RoleCoordenador, RoleAdmin} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	if ValidRole("estagiario") || ValidRole("") {
		t.Error("unknown roles must not validate")
	}
}

func TestDefaultPermissions(t *testing.T) {
	admin := DefaultPermissions(RoleAdmin)
	for _, flag := range []string{PermContatos, PermDemandas, PermAgenda, PermAliancas, PermCampanhas, PermPesquisas, PermRespostasIA} {
		if !admin.Has(flag) {
			t.Errorf("admin default lacks %q", flag)
		}
	}

	coord := DefaultPermissions(RoleCoordenador)
	if coord.RespostasIA {
		t.Error("coordenador default must not include respostas_ia")
	}
	if !coord.Campanhas || !coord.Pesquisas {
		t.Error("coordenador default must include campanhas and pesquisas")
	}

	assessor := DefaultPermissions(RoleAssessor)
	if !assessor.Contatos || !assessor.Demandas || !assessor.Agenda {
		t.Errorf("assessor default = %+v, want contatos, demandas, agenda", assessor)
	}
	if assessor.Aliancas || assessor.Campanhas || assessor.Pesquisas || assessor.RespostasIA {
		t.Errorf("assessor default = %+v grants too much", assessor)
	}

	// Total over the role set: unknown roles get the assessor defaults.
	if DefaultPermissions("estagiario") != assessor {
		t.Error("unknown role must get assessor defaults")
	}
}

func TestHasUnknownFlag(t *testing.T) {
	if DefaultPermissions(RoleAdmin).Has("financeiro") {
		t.Error("unknown flag must be false even for admin")
	}
}

func TestEffectivePermissionsFallback(t *testing.T) {
	u := &User{Role: RoleCoordenador}
	if got := u.EffectivePermissions(); got != DefaultPermissions(RoleCoordenador) {
		t.Errorf("nil override: got %+v, want coordenador defaults", got)
	}

	empty := ""
	u.PermissionsJSON = &empty
	if got := u.EffectivePermissions(); got != DefaultPermissions(RoleCoordenador) {
		t.Errorf("empty override: got %+v, want coordenador defaults", got)
	}

	garbage := "{not json"
	u.PermissionsJSON = &garbage
	if got := u.EffectivePermissions(); got != DefaultPermissions(RoleCoordenador) {
		t.Errorf("garbage override: got %+v, want coordenador defaults", got)
	}
}

func TestEffectivePermissionsOverride(t *testing.T) {
	override, err := json.Marshal(Permissions{RespostasIA: true})
	if err != nil {
		t.Fatal(err)
	}
	s := string(override)
	u := &User{Role: RoleAssessor, PermissionsJSON: &s}

	got := u.EffectivePermissions()
	if !got.RespostasIA {
		t.Error("override grant ignored")
	}
	if got.Contatos {
		t.Error("override must replace the defaults entirely, not merge with them")
	}
}

func TestValidDemandStatus(t *testing.T) {
	for _, s := range []string{DemandOpen, DemandInProgress, DemandResolved, DemandArchived} {
		if !ValidDemandStatus(s) {
			t.Errorf("ValidDemandStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "fechada", "ABERTA"} {
		if ValidDemandStatus(s) {
			t.Errorf("ValidDemandStatus(%q) = true", s)
		}
	}
}

func TestUserJSONHidesSecrets(t *testing.T) {
	perms := `{"contatos":true}`
	u := User{ID: 1, Email: "a@b.c", PasswordHash: "bcrypt-hash", PermissionsJSON: &perms}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["password_hash"]; ok {
		t.Error("password hash leaks through JSON")
	}
}

func TestAPIKeyJSONHidesHash(t *testing.T) {
	k := APIKey{ID: 1, KeyHash: "sha256-of-secret", KeyPrefix: "pk_abcd1234"}
	b, err := json.Marshal(k)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["key_hash"]; ok {
		t.Error("key hash leaks through JSON")
	}
	if out["key_prefix"] != "pk_abcd1234" {
		t.Errorf("key_prefix = %v", out["key_prefix"])
	}
}
