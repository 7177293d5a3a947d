// Package roles manages role records scoped to the caller's department.
package roles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgward/orgward/internal/rbac"
	"github.com/orgward/orgward/internal/shared"
)

// Store is the persistence collaborator for role records.
type Store interface {
	rbac.RoleStore
	ListRolesByDepartment(ctx context.Context, departmentID int64) ([]rbac.Role, error)
	CreateRole(ctx context.Context, role rbac.Role) (rbac.Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string, permissionKeys []string) (rbac.Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// Input carries the writable fields of a role.
type Input struct {
	Name           string
	Description    string
	PermissionKeys []string
}

// Service wraps role business rules. Roles live inside one department; every
// operation is restricted to roles of the caller's own department.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create adds a role to the subject's own department. Permission keys are
// stored as given; unknown keys are tolerated and simply grant nothing the
// engine asks about.
func (s *Service) Create(ctx context.Context, subject shared.Subject, input Input) (rbac.Role, error) {
	created, err := s.store.CreateRole(ctx, rbac.Role{
		Name:           input.Name,
		Description:    input.Description,
		PermissionKeys: dedupe(input.PermissionKeys),
		DepartmentID:   subject.DepartmentID,
	})
	if err != nil {
		return rbac.Role{}, err
	}
	s.logger.Info("role created", slog.Int64("id", created.ID), slog.Int64("department", created.DepartmentID))
	return created, nil
}

// Get returns a role of the subject's own department.
func (s *Service) Get(ctx context.Context, subject shared.Subject, id int64) (rbac.Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return rbac.Role{}, err
	}
	if err := s.inScope(subject, role); err != nil {
		return rbac.Role{}, err
	}
	return role, nil
}

// List returns every role of the subject's own department.
func (s *Service) List(ctx context.Context, subject shared.Subject) ([]rbac.Role, error) {
	return s.store.ListRolesByDepartment(ctx, subject.DepartmentID)
}

// Update modifies a role of the subject's own department.
func (s *Service) Update(ctx context.Context, subject shared.Subject, id int64, input Input) (rbac.Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return rbac.Role{}, err
	}
	if err := s.inScope(subject, role); err != nil {
		return rbac.Role{}, err
	}
	return s.store.UpdateRole(ctx, id, input.Name, input.Description, dedupe(input.PermissionKeys))
}

// Delete removes a role of the subject's own department. Users still
// referencing the role keep a dangling id, which the resolver skips.
func (s *Service) Delete(ctx context.Context, subject shared.Subject, id int64) error {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.inScope(subject, role); err != nil {
		return err
	}
	if err := s.store.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.logger.Info("role deleted", slog.Int64("id", id))
	return nil
}

func (s *Service) inScope(subject shared.Subject, role rbac.Role) error {
	if role.DepartmentID != subject.DepartmentID {
		return fmt.Errorf("role %d belongs to department %d: %w", role.ID, role.DepartmentID, shared.ErrForbidden)
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
