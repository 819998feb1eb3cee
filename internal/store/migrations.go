package store

import (
	"fmt"
	"strings"
)

// ddl returns the statement list for the store's schema in the dialect of the
// active driver. The differences are confined to the primary key and
// timestamp column types.
func (s *Store) ddl() []string {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "DATETIME"
	switch s.driver {
	case "postgres":
		pk = "BIGSERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ"
	case "mysql":
		pk = "BIGINT AUTO_INCREMENT PRIMARY KEY"
		ts = "DATETIME"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			name TEXT NOT NULL DEFAULT '',
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'assessor',
			permissions_json TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_keys (
			id %s,
			key_hash VARCHAR(64) UNIQUE NOT NULL,
			key_prefix VARCHAR(16) NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			user_id BIGINT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at %s,
			created_at %s NOT NULL,
			last_used %s
		)`, pk, ts, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_usage_logs (
			id %s,
			api_key_id BIGINT NOT NULL,
			endpoint TEXT NOT NULL,
			method VARCHAR(8) NOT NULL,
			status_code INTEGER NOT NULL,
			ip_address VARCHAR(64) NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL
		)`, pk, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS contacts (
			id %s,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			neighborhood TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_by BIGINT NOT NULL,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS demands (
			id %s,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL DEFAULT 'aberta',
			priority INTEGER NOT NULL DEFAULT 0,
			contact_id BIGINT,
			assignee_id BIGINT,
			created_by BIGINT NOT NULL,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
			id %s,
			title TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			starts_at %s NOT NULL,
			ends_at %s NOT NULL,
			created_by BIGINT NOT NULL,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS leads (
			id %s,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			api_key_id BIGINT NOT NULL,
			created_at %s NOT NULL
		)`, pk, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS survey_responses (
			id %s,
			survey_slug VARCHAR(128) NOT NULL,
			answers TEXT NOT NULL,
			api_key_id BIGINT NOT NULL,
			created_at %s NOT NULL
		)`, pk, ts),

		`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_logs_key ON api_usage_logs(api_key_id)`,
		`CREATE INDEX IF NOT EXISTS idx_demands_status ON demands(status)`,
	}
}

func (s *Store) migrate() error {
	for _, m := range s.ddl() {
		if _, err := s.db.Exec(m); err != nil {
			// MySQL lacks CREATE INDEX IF NOT EXISTS; a duplicate index on
			// re-run is a no-op for idempotent migrations.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
