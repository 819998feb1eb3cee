package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/store"
)

var (
	// ErrInvalidCredentials covers bad email/password pairs on login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, tampered, or expired session tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUserNotFound is returned when a token verifies but its subject no
	// longer exists in the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserDisabled is returned for deactivated accounts.
	ErrUserDisabled = errors.New("user disabled")
	// ErrInvalidKey covers unknown, revoked, and expired API keys.
	ErrInvalidKey = errors.New("invalid or expired api key")
	// ErrEmailTaken is returned on registration with a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// TokenTTL is the fixed validity window of a session token. Sessions are
// stateless: there is no server-side revocation list, the token simply
// expires.
const TokenTTL = 30 * 24 * time.Hour

// TokenClaims is what a verified session token asserts: the subject's
// identity plus a role snapshot taken at issuance. The snapshot is advisory
// only; callers must re-read the user record for the current role.
type TokenClaims struct {
	UserID int64
	Role   string
}

// AuthService issues and verifies session tokens and validates API keys
// against the store.
type AuthService struct {
	store  *store.Store
	secret []byte
}

// NewAuthService creates an AuthService signing tokens with the given secret.
func NewAuthService(st *store.Store, secret string) *AuthService {
	return &AuthService{store: st, secret: []byte(secret)}
}

// IssueToken signs a session token for the user with the fixed 30-day TTL.
// Pure function of its inputs plus the signing secret: no store access.
func (s *AuthService) IssueToken(userID int64, role string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    "mandato",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates signature and expiration and returns the embedded
// claims. Verification has no side effects and is idempotent.
func (s *AuthService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{UserID: claims.UserID, Role: claims.Role}, nil
}

// CurrentUser verifies a session token and re-reads the subject's record.
// The returned user carries the role as stored right now, never the role
// embedded in the token: the token proves identity, not current privilege.
func (s *AuthService) CurrentUser(ctx context.Context, tokenStr string) (*model.User, error) {
	claims, err := s.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetch token subject: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return user, nil
}

// Login checks an email/password pair and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, "", ErrUserDisabled
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Register creates a new account and issues its first session token. The
// very first account of an office is created as admin; later ones default
// to assessor.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	role := model.RoleAssessor
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// ValidateAPIKey resolves a raw "pk_..." secret to an active key record.
// The store is consulted on every call; there is no caching, so revocation
// takes effect immediately. The last-used timestamp is updated fire and
// forget.
func (s *AuthService) ValidateAPIKey(ctx context.Context, rawKey string) (*model.APIKey, error) {
	hash := store.HashSecret(rawKey)

	key, err := s.store.GetAPIKeyByHash(ctx, hash)
	if err != nil {
		return nil, ErrInvalidKey
	}

	if !key.IsActive {
		return nil, ErrInvalidKey
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidKey
	}

	go s.store.UpdateAPIKeyLastUsed(context.Background(), key.ID) //nolint:errcheck

	return key, nil
}

// GenerateAPIKey mints a new machine credential bound to a user account and
// stores its hash. The plaintext is returned exactly once and cannot be
// recovered afterwards.
func (s *AuthService) GenerateAPIKey(ctx context.Context, userID int64, label string, expiresAt *time.Time) (string, *model.APIKey, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	plaintext := model.APIKeyPrefix + hex.EncodeToString(rawBytes)

	key := &model.APIKey{
		KeyHash:   store.HashSecret(plaintext),
		KeyPrefix: plaintext[:len(model.APIKeyPrefix)+8],
		Label:     label,
		UserID:    userID,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return "", nil, fmt.Errorf("save api key: %w", err)
	}

	return plaintext, key, nil
}

type jwtClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
