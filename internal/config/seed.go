package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/store"
)

// SeedFile declares an office's initial accounts and integration keys. It is
// applied idempotently: existing users (matched by email) and keys (matched
// by label) are left untouched, so the file can ship with a deployment and
// be re-applied on every upgrade.
type SeedFile struct {
	Users []SeedUser   `yaml:"users"`
	Keys  []SeedAPIKey `yaml:"api_keys"`
}

// SeedUser declares one staff account.
type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedAPIKey declares one integration key. The generated secret is reported
// through the Result exactly once, on the run that created the key.
type SeedAPIKey struct {
	Label      string `yaml:"label"`
	OwnerEmail string `yaml:"owner_email"`
	ExpiresIn  string `yaml:"expires_in,omitempty"` // Go duration, e.g. "8760h"
}

// SeedResult reports what a seed run changed.
type SeedResult struct {
	UsersCreated int
	KeysCreated  int
	// NewKeys maps label to plaintext secret for keys created on this run.
	NewKeys map[string]string
}

// KeyGenerator mints an API key for a user. Satisfied by the auth service.
type KeyGenerator interface {
	GenerateAPIKey(ctx context.Context, userID int64, label string, expiresAt *time.Time) (string, *model.APIKey, error)
}

// LoadSeedFile reads and parses a seed YAML file. Environment variables
// referenced as ${VAR_NAME} are expanded before parsing, so passwords can
// stay out of the file itself.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var sf SeedFile
	if err := yaml.Unmarshal([]byte(content), &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &sf, nil
}

// Validate checks the seed declarations before anything touches the store.
func (sf *SeedFile) Validate() error {
	for i, u := range sf.Users {
		if u.Email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
		if u.Password == "" {
			return fmt.Errorf("users[%d] (%s): password is required", i, u.Email)
		}
		if u.Role != "" && !model.ValidRole(u.Role) {
			return fmt.Errorf("users[%d] (%s): unknown role %q", i, u.Email, u.Role)
		}
	}
	for i, k := range sf.Keys {
		if k.Label == "" {
			return fmt.Errorf("api_keys[%d]: label is required", i)
		}
		if k.OwnerEmail == "" {
			return fmt.Errorf("api_keys[%d] (%s): owner_email is required", i, k.Label)
		}
		if k.ExpiresIn != "" {
			if _, err := time.ParseDuration(k.ExpiresIn); err != nil {
				return fmt.Errorf("api_keys[%d] (%s): bad expires_in: %w", i, k.Label, err)
			}
		}
	}
	return nil
}

// Apply creates the declared users and keys that do not exist yet.
func (sf *SeedFile) Apply(ctx context.Context, st *store.Store, gen KeyGenerator) (*SeedResult, error) {
	if err := sf.Validate(); err != nil {
		return nil, err
	}

	res := &SeedResult{NewKeys: make(map[string]string)}

	for _, su := range sf.Users {
		_, err := st.GetUserByEmail(ctx, su.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("seed user %s: %w", su.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		role := su.Role
		if role == "" {
			role = model.RoleAssessor
		}
		user := &model.User{
			Name:         su.Name,
			Email:        su.Email,
			PasswordHash: string(hash),
			Role:         role,
			IsActive:     true,
		}
		if err := st.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		res.UsersCreated++
	}

	var existingLabels map[string]bool
	if len(sf.Keys) > 0 {
		keys, err := st.ListAPIKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed keys: %w", err)
		}
		existingLabels = make(map[string]bool, len(keys))
		for _, k := range keys {
			existingLabels[k.Label] = true
		}
	}

	for _, sk := range sf.Keys {
		if existingLabels[sk.Label] {
			continue
		}

		owner, err := st.GetUserByEmail(ctx, sk.OwnerEmail)
		if err != nil {
			return nil, fmt.Errorf("seed key %s: owner %s: %w", sk.Label, sk.OwnerEmail, err)
		}

		var expiresAt *time.Time
		if sk.ExpiresIn != "" {
			d, _ := time.ParseDuration(sk.ExpiresIn)
			t := time.Now().UTC().Add(d)
			expiresAt = &t
		}

		plaintext, _, err := gen.GenerateAPIKey(ctx, owner.ID, sk.Label, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("seed key %s: %w", sk.Label, err)
		}
		res.KeysCreated++
		res.NewKeys[sk.Label] = plaintext
	}

	return res, nil
}
