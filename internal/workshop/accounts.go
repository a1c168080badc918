package workshop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/store"
)

const (
	defaultPosition = "Manager"
	defaultPhoto    = "default-avatar.png"
	defaultTheme    = "light"
)

// Registration is a self-service sign-up request.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,max=128"`
	Position string `json:"position" validate:"max=64"`
}

// Register creates an inactive manager account. An administrator has to
// activate it before it can log in.
func (s *Service) Register(ctx context.Context, in Registration) (store.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return store.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, err
	}

	position := in.Position
	if position == "" {
		position = defaultPosition
	}
	u := store.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         store.RoleManager,
		Position:     position,
		FullName:     in.FullName,
		Photo:        defaultPhoto,
		Theme:        defaultTheme,
		Capabilities: auth.ManagerCapabilities,
		CreatedAt:    s.clock(),
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		taken, err := tx.Users.ExistsByUsernameOrEmail(ctx, u.Username, u.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrUserExists
		}
		if err := tx.Users.Create(ctx, &u); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrUserExists
			}
			return err
		}
		return s.audit(ctx, tx, u.ID, "registration", "registered user "+u.Username)
	})
	if err != nil {
		return store.User{}, fmt.Errorf("register %q: %w", in.Username, err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login checks the credentials of username. Wrong passwords are counted and
// the account is locked once the limit is reached.
func (s *Service) Login(ctx context.Context, username, password string) (store.User, error) {
	u, err := s.store.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrUserNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("load user: %w", err)
	}
	if u.IsLocked {
		return store.User{}, ErrAccountLocked
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return store.User{}, s.failLogin(ctx, u)
	}

	if !u.IsActive {
		return store.User{}, ErrAccountInactive
	}

	now := s.clock()
	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Users.RecordLogin(ctx, u.ID, now); err != nil {
			return err
		}
		return s.audit(ctx, tx, u.ID, "login", "user "+u.Username+" logged in")
	})
	if err != nil {
		return store.User{}, fmt.Errorf("record login: %w", err)
	}

	u.LoginAttempts = 0
	u.LastLoginAt = &now
	return u, nil
}

func (s *Service) failLogin(ctx context.Context, u store.User) error {
	s.metrics.LoginFailed()

	var (
		attempts int
		locked   bool
	)
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		attempts, locked, err = tx.Users.RecordFailedLogin(ctx, u.ID, s.maxLoginAttempts)
		if err != nil {
			return err
		}
		// Only the failure that reached the limit writes the lock entry.
		if attempts != s.maxLoginAttempts {
			return nil
		}
		return s.audit(ctx, tx, u.ID, "account_locked",
			fmt.Sprintf("account %s locked after %d failed attempts", u.Username, attempts))
	})
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}

	if locked {
		if attempts == s.maxLoginAttempts {
			s.logger.Warn("account locked", zap.String("user_id", u.ID), zap.Int("attempts", attempts))
		}
		return fmt.Errorf("%w after %d failed attempts", ErrAccountLocked, attempts)
	}
	return &CredentialsError{Remaining: s.maxLoginAttempts - attempts}
}

// Logout ends every session of the actor: tokens issued before the call no
// longer verify, whether they travel in a cookie or a bearer header.
func (s *Service) Logout(ctx context.Context, actor store.User) error {
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Users.RevokeSessions(ctx, actor.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor.ID, "logout", "user "+actor.Username+" logged out")
	})
}

// User returns the account with id.
func (s *Service) User(ctx context.Context, id string) (store.User, error) {
	u, err := s.store.Users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrUserNotFound
	}
	return u, err
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context, actor store.User) ([]store.User, error) {
	if err := authorize(actor, auth.CapManageUsers); err != nil {
		return nil, err
	}
	return s.store.Users.List(ctx)
}

// ApproveUser activates a registered account.
func (s *Service) ApproveUser(ctx context.Context, actor store.User, userID string) error {
	if err := authorize(actor, auth.CapManageUsers); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Users.SetActive(ctx, userID, true); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return s.audit(ctx, tx, actor.ID, "user_approved", "activated user "+userID)
	})
}

// UnlockUser clears the lock and the failed attempt counter of an account.
func (s *Service) UnlockUser(ctx context.Context, actor store.User, userID string) error {
	if err := authorize(actor, auth.CapManageUsers); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Users.Unlock(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return s.audit(ctx, tx, actor.ID, "user_unlocked", "unlocked user "+userID)
	})
}
