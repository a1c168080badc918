// Package workshop implements the print shop's business operations: accounts,
// clients, orders, calculations, documents, chat, notifications and the audit
// log. Every operation is performed on behalf of an actor and checked against
// the actor's capabilities.
package workshop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/documents"
	"github.com/Simplici0/printdesk/internal/metrics"
	"github.com/Simplici0/printdesk/internal/store"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("username or email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountInactive    = errors.New("account awaiting activation")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCalculatorInactive = errors.New("calculator is inactive")
)

// CredentialsError is returned for a wrong password on an account that is not
// locked yet.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("%s: %d attempts left", ErrInvalidCredentials, e.Remaining)
}

func (e *CredentialsError) Unwrap() error { return ErrInvalidCredentials }

const (
	defaultMaxLoginAttempts = 5
	recentNotifications     = 10
)

// Service runs workshop operations against the record store.
type Service struct {
	store            *store.Store
	docs             *documents.Generator
	metrics          *metrics.Metrics
	logger           *zap.Logger
	validate         *validator.Validate
	now              func() time.Time
	maxLoginAttempts int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxLoginAttempts sets how many consecutive failures lock an account.
func WithMaxLoginAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLoginAttempts = n
		}
	}
}

// New returns a Service. m and logger may be nil.
func New(st *store.Store, docs *documents.Generator, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:            st,
		docs:             docs,
		metrics:          m,
		logger:           logger,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		now:              time.Now,
		maxLoginAttempts: defaultMaxLoginAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type remoteAddrKey struct{}

// WithRemoteAddr attaches the client address recorded in audit entries.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey{}, addr)
}

func remoteAddr(ctx context.Context) string {
	addr, _ := ctx.Value(remoteAddrKey{}).(string)
	return addr
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func authorize(actor store.User, want auth.Capabilities) error {
	if !actor.IsActive || actor.IsLocked || !actor.Capabilities.Has(want) {
		return fmt.Errorf("%w: %s requires %s", ErrForbidden, actor.Username, want)
	}
	return nil
}

func (s *Service) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) audit(ctx context.Context, tx *store.Store, userID, action, details string) error {
	return tx.Audit.Append(ctx, &store.AuditEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: remoteAddr(ctx),
		CreatedAt: s.clock(),
	})
}

func (s *Service) notify(ctx context.Context, tx *store.Store, userID, kind, title, message string) error {
	return tx.Notifications.Create(ctx, &store.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.clock(),
	})
}
