package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/rbac"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, input CreateUserInput, passwordHash string) (User, error)
	Update(ctx context.Context, id int64, input UpdateUserInput) (User, error)
	SetActive(ctx context.Context, id int64, active bool) (User, error)
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// AuditPort records account changes in the audit trail.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service handles user account business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (User, error) {
	if !rbac.Valid(input.Role) {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, input.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, input, string(hash))
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.create", user.ID)
	return user, nil
}

// Update replaces profile fields and role.
func (s *Service) Update(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	if !rbac.Valid(input.Role) {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, input.Role)
	}
	user, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.update", user.ID)
	return user, nil
}

// Deactivate disables an account. An actor cannot disable their own account
// to avoid locking out the last superadmin.
func (s *Service) Deactivate(ctx context.Context, id int64) (User, error) {
	if actor := shared.ActorFromContext(ctx); actor != nil && actor.UserID == id {
		return User{}, fmt.Errorf("%w: cannot deactivate own account", httpx.ErrConflict)
	}
	user, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.deactivate", user.ID)
	return user, nil
}

// Activate re-enables an account.
func (s *Service) Activate(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.SetActive(ctx, id, true)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.activate", user.ID)
	return user, nil
}

// SetPassword hashes and stores a new password for the account.
func (s *Service) SetPassword(ctx context.Context, id int64, input SetPasswordInput) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, id, string(hash)); err != nil {
		return err
	}
	s.record(ctx, "user.set_password", id)
	return nil
}

func (s *Service) record(ctx context.Context, action string, userID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "user",
		EntityID: fmt.Sprintf("%d", userID),
	})
}
