package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/printdesk/internal/auth"
)

const (
	RoleAdministrator = "administrator"
	RoleManager       = "manager"
)

// User is a staff account.
type User struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	PasswordHash  string            `json:"-"`
	Role          string            `json:"role"`
	Position      string            `json:"position"`
	FullName      string            `json:"fullName"`
	Photo         string            `json:"photo"`
	Theme         string            `json:"theme"`
	Capabilities  auth.Capabilities `json:"-"`
	IsActive      bool              `json:"isActive"`
	IsLocked      bool              `json:"isLocked"`
	LoginAttempts int               `json:"loginAttempts"`
	LastLoginAt   *time.Time        `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`

	// SessionVersion invalidates every token issued at an older version.
	SessionVersion int `json:"-"`
}

// UserRepository stores staff accounts.
type UserRepository struct {
	conn DBTX
}

const userColumns = `id, username, email, password_hash, role, position, full_name, photo, theme,
	capabilities, is_active, is_locked, login_attempts, last_login_at, created_at, session_version`

// Create inserts u, assigning an ID when it has none.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = NewID("user")
	}

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Position, u.FullName, u.Photo, u.Theme,
		int64(u.Capabilities), u.IsActive, u.IsLocked, u.LoginAttempts, formatNullTime(u.LastLoginAt), formatTime(u.CreatedAt),
		u.SessionVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", u.Username, ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get returns the user with id.
func (r *UserRepository) Get(ctx context.Context, id string) (User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByUsername returns the user with username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ExistsByUsernameOrEmail reports whether either identifier is taken.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ? OR email = ?)`, username, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return exists, nil
}

// List returns all accounts, oldest first.
func (r *UserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// RecordFailedLogin increments the failed attempt counter and locks the
// account once it reaches maxAttempts. It returns the stored values after the
// update so concurrent failures never overwrite each other.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id string, maxAttempts int) (attempts int, locked bool, err error) {
	err = r.conn.QueryRowContext(ctx, `
UPDATE users
SET login_attempts = login_attempts + 1,
    is_locked = (is_locked OR login_attempts + 1 >= ?)
WHERE id = ?
RETURNING login_attempts, is_locked`, maxAttempts, id).Scan(&attempts, &locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("update login attempts: %w", err)
	}
	return attempts, locked, nil
}

// RecordLogin resets the failed attempt counter and stores the login time.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET login_attempts = 0, last_login_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return checkAffected(result, "update last login")
}

// SetActive activates or deactivates an account.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.conn.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update user activity: %w", err)
	}
	return checkAffected(result, "update user activity")
}

// RevokeSessions bumps the session version so earlier tokens stop verifying.
func (r *UserRepository) RevokeSessions(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET session_version = session_version + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return checkAffected(result, "revoke sessions")
}

// Unlock clears the lock flag and the failed attempt counter.
func (r *UserRepository) Unlock(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET is_locked = FALSE, login_attempts = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("unlock user: %w", err)
	}
	return checkAffected(result, "unlock user")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u         User
		caps      int64
		lastLogin sql.NullString
		createdAt string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Position, &u.FullName, &u.Photo, &u.Theme,
		&caps, &u.IsActive, &u.IsLocked, &u.LoginAttempts, &lastLogin, &createdAt, &u.SessionVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}

	u.Capabilities = auth.Capabilities(caps)
	if u.LastLoginAt, err = parseNullTime(lastLogin); err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return User{}, err
	}
	return u, nil
}
