// Package users manages platform accounts and authentication.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/shared"
)

// Store is the persistence collaborator for user records.
type Store interface {
	GetUser(ctx context.Context, id int64) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, id int64, phoneNumber, realName string, departmentID int64, roleIDs []int64) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetLoginAttempts(ctx context.Context, id int64, attempts int) error
}

// CreateInput carries the fields of a new user.
type CreateInput struct {
	Username     string
	Password     string
	IDNumber     string
	PhoneNumber  string
	RealName     string
	DepartmentID int64
	RoleIDs      []int64
}

// UpdateInput carries the mutable fields of a user.
type UpdateInput struct {
	PhoneNumber  string
	RealName     string
	DepartmentID int64
	RoleIDs      []int64
}

// Service wraps user management and authentication rules. Management scope
// follows the department hierarchy: creating and updating reach the caller's
// own department and its direct children, deleting stays inside the own
// department, viewing covers the whole subtree.
type Service struct {
	store  Store
	tree   *departments.Tree
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, tree *departments.Tree, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tree: tree, logger: logger}
}

// LoadSubject builds the authorization subject for a user id.
func (s *Service) LoadSubject(ctx context.Context, userID int64) (shared.Subject, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return shared.Subject{}, err
	}
	return shared.Subject{
		UserID:       user.ID,
		DepartmentID: user.DepartmentID,
		RoleIDs:      user.RoleIDs,
	}, nil
}

// Create adds a user to the subject's own department or one of its direct
// children.
func (s *Service) Create(ctx context.Context, subject shared.Subject, input CreateInput) (User, error) {
	if input.DepartmentID != subject.DepartmentID {
		direct, err := s.tree.IsDirectChild(ctx, subject.DepartmentID, input.DepartmentID)
		if err != nil {
			return User{}, err
		}
		if !direct {
			return User{}, fmt.Errorf("department %d is not the caller's own or a direct child: %w", input.DepartmentID, shared.ErrForbidden)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.store.CreateUser(ctx, User{
		Username:     input.Username,
		PasswordHash: string(hash),
		IDNumber:     input.IDNumber,
		PhoneNumber:  input.PhoneNumber,
		RealName:     input.RealName,
		DepartmentID: input.DepartmentID,
		RoleIDs:      input.RoleIDs,
	})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", slog.Int64("id", created.ID), slog.Int64("department", created.DepartmentID))
	return created, nil
}

// Self returns the caller's own record, no scope check needed.
func (s *Service) Self(ctx context.Context, userID int64) (User, error) {
	return s.store.GetUser(ctx, userID)
}

// Get returns a user whose department is the subject's own or a descendant.
func (s *Service) Get(ctx context.Context, subject shared.Subject, id int64) (User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.requireSubtree(ctx, subject, user.DepartmentID); err != nil {
		return User{}, err
	}
	return user, nil
}

// ListByDepartment returns users of a department inside the subject's
// subtree. A zero departmentID means the subject's own department.
func (s *Service) ListByDepartment(ctx context.Context, subject shared.Subject, departmentID int64) ([]User, error) {
	if departmentID == 0 {
		departmentID = subject.DepartmentID
	}
	if err := s.requireSubtree(ctx, subject, departmentID); err != nil {
		return nil, err
	}
	return s.store.ListByDepartment(ctx, departmentID)
}

// Update modifies a user in the subject's own department or a direct child.
// Moving the user keeps the same bound: the new department must also be the
// own department or a direct child.
func (s *Service) Update(ctx context.Context, subject shared.Subject, id int64, input UpdateInput) (User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.requireOwnOrDirectChild(ctx, subject, user.DepartmentID); err != nil {
		return User{}, err
	}
	if input.DepartmentID != user.DepartmentID {
		if err := s.requireOwnOrDirectChild(ctx, subject, input.DepartmentID); err != nil {
			return User{}, err
		}
	}
	return s.store.UpdateUser(ctx, id, input.PhoneNumber, input.RealName, input.DepartmentID, input.RoleIDs)
}

// Delete removes a user of the subject's own department.
func (s *Service) Delete(ctx context.Context, subject shared.Subject, id int64) error {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.DepartmentID != subject.DepartmentID {
		return fmt.Errorf("user %d belongs to department %d: %w", id, user.DepartmentID, shared.ErrForbidden)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// Authenticate validates username/password credentials and maintains the
// failed-attempt counter. A locked account rejects even correct credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, shared.ErrInvalidCredentials
		}
		return User{}, err
	}
	if user.Locked() {
		return User{}, shared.ErrAccountLocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if err := s.store.SetLoginAttempts(ctx, user.ID, user.LoginAttempts+1); err != nil {
			s.logger.Warn("record login attempt", slog.Any("error", err))
		}
		return User{}, shared.ErrInvalidCredentials
	}
	if user.LoginAttempts > 0 {
		if err := s.store.SetLoginAttempts(ctx, user.ID, 0); err != nil {
			s.logger.Warn("reset login attempts", slog.Any("error", err))
		}
	}
	return user, nil
}

func (s *Service) requireSubtree(ctx context.Context, subject shared.Subject, departmentID int64) error {
	if departmentID == subject.DepartmentID {
		return nil
	}
	descendant, err := s.tree.IsDescendant(ctx, subject.DepartmentID, departmentID)
	if err != nil {
		return err
	}
	if !descendant {
		return fmt.Errorf("department %d is outside the caller's subtree: %w", departmentID, shared.ErrForbidden)
	}
	return nil
}

func (s *Service) requireOwnOrDirectChild(ctx context.Context, subject shared.Subject, departmentID int64) error {
	if departmentID == subject.DepartmentID {
		return nil
	}
	direct, err := s.tree.IsDirectChild(ctx, subject.DepartmentID, departmentID)
	if err != nil {
		return err
	}
	if !direct {
		return fmt.Errorf("department %d is not the caller's own or a direct child: %w", departmentID, shared.ErrForbidden)
	}
	return nil
}
