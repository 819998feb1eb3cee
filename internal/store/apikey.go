package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mandatohub/mandato/internal/model"
)

// CreateAPIKey inserts a new API key record. The key_hash must already be set
// (use HashSecret on the plaintext). ID and CreatedAt are populated on insert.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO api_keys
		(key_hash, key_prefix, label, user_id, is_active, expires_at, created_at)
		VALUES
		(:key_hash, :key_prefix, :label, :user_id, :is_active, :expires_at, :created_at)`

	id, err := s.insertGetID(ctx, q, key)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	key.ID = id
	return nil
}

// GetAPIKeyByHash looks up an API key by its SHA-256 hash.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	if err := s.db.GetContext(ctx, &key, s.rebind("SELECT * FROM api_keys WHERE key_hash = ?"), hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns all API keys, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, "SELECT * FROM api_keys ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey marks an API key as inactive by ID.
func (s *Store) RevokeAPIKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE api_keys SET is_active = ? WHERE id = ?"), false, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed sets the last_used timestamp for an API key.
func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE api_keys SET last_used = ? WHERE id = ?"), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update api key last used rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertUsageLog appends one entry to the API key audit trail.
func (s *Store) InsertUsageLog(ctx context.Context, rec *model.UsageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO api_usage_logs
		(api_key_id, endpoint, method, status_code, ip_address, user_agent, created_at)
		VALUES
		(:api_key_id, :endpoint, :method, :status_code, :ip_address, :user_agent, :created_at)`

	id, err := s.insertGetID(ctx, q, rec)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	rec.ID = id
	return nil
}

// ListUsageLogs returns the most recent usage entries for one API key.
func (s *Store) ListUsageLogs(ctx context.Context, apiKeyID int64, limit int) ([]model.UsageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []model.UsageRecord
	q := s.rebind("SELECT * FROM api_usage_logs WHERE api_key_id = ? ORDER BY created_at DESC LIMIT ?")
	if err := s.db.SelectContext(ctx, &recs, q, apiKeyID, limit); err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return recs, nil
}
