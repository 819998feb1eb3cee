package model

import "time"

// APIKeyPrefix is the literal prefix every machine credential starts with.
// It is what distinguishes API keys from session tokens in the
// Authorization header.
const APIKeyPrefix = "pk_"

// APIKey is a machine credential scoped to one account. The raw key is never
// stored; only a SHA-256 hash and a short prefix for identification are
// persisted.
type APIKey struct {
	ID        int64      `json:"id" db:"id"`
	KeyHash   string     `json:"-" db:"key_hash"`
	KeyPrefix string     `json:"key_prefix" db:"key_prefix"` // "pk_" + first 8 hex chars
	Label     string     `json:"label" db:"label"`
	UserID    int64      `json:"user_id" db:"user_id"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty" db:"last_used"`
}

// UsageRecord is one entry of the API key audit trail. Records are written
// asynchronously after the response has been sent and must never affect the
// primary request.
type UsageRecord struct {
	ID         int64     `json:"id" db:"id"`
	APIKeyID   int64     `json:"api_key_id" db:"api_key_id"`
	Endpoint   string    `json:"endpoint" db:"endpoint"`
	Method     string    `json:"method" db:"method"`
	StatusCode int       `json:"status_code" db:"status_code"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
