package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mandatohub/mandato/internal/model"
)

// CreateUser inserts a new user. ID, CreatedAt, and UpdatedAt are populated
// on success.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	const q = `INSERT INTO users
		(name, email, password_hash, role, permissions_json, is_active, created_at, updated_at)
		VALUES
		(:name, :email, :password_hash, :role, :permissions_json, :is_active, :created_at, :updated_at)`

	id, err := s.insertGetID(ctx, q, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.rebind("SELECT * FROM users WHERE id = ?"), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.rebind("SELECT * FROM users WHERE email = ?"), email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CountUsers reports how many users exist. Used for first-run detection: the
// first registered account becomes the office admin.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// UpdateUserRole changes a user's role. Sessions issued before the change
// pick up the new role on their next request, since the role is re-read from
// this table on every request.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role string) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE users SET role = ?, updated_at = ? WHERE id = ?"),
		role, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user role rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPermissions stores an explicit permission override for a user.
// Pass nil to clear the override and fall back to role defaults.
func (s *Store) UpdateUserPermissions(ctx context.Context, id int64, perms *model.Permissions) error {
	var permsJSON *string
	if perms != nil {
		b, err := json.Marshal(perms)
		if err != nil {
			return fmt.Errorf("marshal permissions: %w", err)
		}
		str := string(b)
		permsJSON = &str
	}

	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE users SET permissions_json = ?, updated_at = ? WHERE id = ?"),
		permsJSON, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user permissions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user permissions rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by ID. Any outstanding session tokens for the
// user stop working on their next request.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
