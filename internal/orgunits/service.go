package orgunits

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/shared"
	"github.com/orgward/orgward/internal/users"
)

// Store is the persistence collaborator for org units and memberships.
type Store interface {
	GetOrgUnit(ctx context.Context, id int64) (OrgUnit, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]OrgUnit, error)
	CreateOrgUnit(ctx context.Context, unit OrgUnit) (OrgUnit, error)
	UpdateOrgUnit(ctx context.Context, id int64, name string) (OrgUnit, error)
	DeleteOrgUnit(ctx context.Context, id int64) error
	AddMember(ctx context.Context, orgUnitID, userID int64) (Membership, error)
	RemoveMember(ctx context.Context, orgUnitID, userID int64) error
	ListMembers(ctx context.Context, orgUnitID int64) ([]Membership, error)
	ListMembershipsByUser(ctx context.Context, userID int64) ([]Membership, error)
}

// DepartmentStore resolves department records for scope checks.
type DepartmentStore interface {
	GetDepartment(ctx context.Context, id int64) (departments.Department, error)
}

// UserStore resolves user records for membership scope checks.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (users.User, error)
}

// Service wraps org unit business rules. Writes stay inside the caller's own
// department; reads additionally cover the department's direct parent, so a
// child department can see the units it reports into.
type Service struct {
	store  Store
	depts  DepartmentStore
	users  UserStore
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, depts DepartmentStore, userStore UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, depts: depts, users: userStore, logger: logger}
}

// Create adds an org unit to the subject's own department. A zero
// DepartmentID defaults to the subject's department; any other department is
// rejected.
func (s *Service) Create(ctx context.Context, subject shared.Subject, name string, departmentID int64) (OrgUnit, error) {
	if departmentID == 0 {
		departmentID = subject.DepartmentID
	}
	if departmentID != subject.DepartmentID {
		return OrgUnit{}, fmt.Errorf("org units are created in the caller's own department: %w", shared.ErrForbidden)
	}
	created, err := s.store.CreateOrgUnit(ctx, OrgUnit{Name: name, DepartmentID: departmentID})
	if err != nil {
		return OrgUnit{}, err
	}
	s.logger.Info("org unit created", slog.Int64("id", created.ID), slog.Int64("department", created.DepartmentID))
	return created, nil
}

// Get returns an org unit of the subject's own department or its direct
// parent.
func (s *Service) Get(ctx context.Context, subject shared.Subject, id int64) (OrgUnit, error) {
	unit, err := s.store.GetOrgUnit(ctx, id)
	if err != nil {
		return OrgUnit{}, err
	}
	if err := s.requireVisible(ctx, subject, unit.DepartmentID); err != nil {
		return OrgUnit{}, err
	}
	return unit, nil
}

// ListByDepartment returns the org units of a department. A zero departmentID
// means the subject's own department; otherwise the department must be the
// own one or its direct parent.
func (s *Service) ListByDepartment(ctx context.Context, subject shared.Subject, departmentID int64) ([]OrgUnit, error) {
	if departmentID == 0 {
		departmentID = subject.DepartmentID
	}
	if err := s.requireVisible(ctx, subject, departmentID); err != nil {
		return nil, err
	}
	return s.store.ListByDepartment(ctx, departmentID)
}

// Update renames an org unit of the subject's own department.
func (s *Service) Update(ctx context.Context, subject shared.Subject, id int64, name string) (OrgUnit, error) {
	unit, err := s.store.GetOrgUnit(ctx, id)
	if err != nil {
		return OrgUnit{}, err
	}
	if err := s.requireOwn(subject, unit); err != nil {
		return OrgUnit{}, err
	}
	return s.store.UpdateOrgUnit(ctx, id, name)
}

// Delete removes an org unit of the subject's own department together with
// its memberships.
func (s *Service) Delete(ctx context.Context, subject shared.Subject, id int64) error {
	unit, err := s.store.GetOrgUnit(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwn(subject, unit); err != nil {
		return err
	}
	if err := s.store.DeleteOrgUnit(ctx, id); err != nil {
		return err
	}
	s.logger.Info("org unit deleted", slog.Int64("id", id))
	return nil
}

// AddMember links a user to an org unit. Both the unit and the user must
// belong to the subject's own department.
func (s *Service) AddMember(ctx context.Context, subject shared.Subject, orgUnitID, userID int64) (Membership, error) {
	unit, err := s.store.GetOrgUnit(ctx, orgUnitID)
	if err != nil {
		return Membership{}, err
	}
	if err := s.requireOwn(subject, unit); err != nil {
		return Membership{}, err
	}
	member, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Membership{}, err
	}
	if member.DepartmentID != subject.DepartmentID {
		return Membership{}, fmt.Errorf("user %d belongs to department %d: %w", userID, member.DepartmentID, shared.ErrForbidden)
	}
	created, err := s.store.AddMember(ctx, orgUnitID, userID)
	if err != nil {
		return Membership{}, err
	}
	s.logger.Info("org unit member added", slog.Int64("unit", orgUnitID), slog.Int64("user", userID))
	return created, nil
}

// RemoveMember unlinks a user from an org unit under the same department
// bound as AddMember.
func (s *Service) RemoveMember(ctx context.Context, subject shared.Subject, orgUnitID, userID int64) error {
	unit, err := s.store.GetOrgUnit(ctx, orgUnitID)
	if err != nil {
		return err
	}
	if err := s.requireOwn(subject, unit); err != nil {
		return err
	}
	member, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if member.DepartmentID != subject.DepartmentID {
		return fmt.Errorf("user %d belongs to department %d: %w", userID, member.DepartmentID, shared.ErrForbidden)
	}
	if err := s.store.RemoveMember(ctx, orgUnitID, userID); err != nil {
		return err
	}
	s.logger.Info("org unit member removed", slog.Int64("unit", orgUnitID), slog.Int64("user", userID))
	return nil
}

// ListMembers returns the memberships of an org unit in the subject's own
// department or its direct parent.
func (s *Service) ListMembers(ctx context.Context, subject shared.Subject, orgUnitID int64) ([]Membership, error) {
	unit, err := s.store.GetOrgUnit(ctx, orgUnitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(ctx, subject, unit.DepartmentID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, orgUnitID)
}

// ListMembershipsByUser returns the org unit memberships of a user. A zero
// userID means the subject itself; otherwise the user must belong to the
// subject's own department or its direct parent.
func (s *Service) ListMembershipsByUser(ctx context.Context, subject shared.Subject, userID int64) ([]Membership, error) {
	if userID == 0 {
		userID = subject.UserID
	} else if userID != subject.UserID {
		member, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.requireVisible(ctx, subject, member.DepartmentID); err != nil {
			return nil, err
		}
	}
	return s.store.ListMembershipsByUser(ctx, userID)
}

func (s *Service) requireOwn(subject shared.Subject, unit OrgUnit) error {
	if unit.DepartmentID != subject.DepartmentID {
		return fmt.Errorf("org unit %d belongs to department %d: %w", unit.ID, unit.DepartmentID, shared.ErrForbidden)
	}
	return nil
}

func (s *Service) requireVisible(ctx context.Context, subject shared.Subject, departmentID int64) error {
	if departmentID == subject.DepartmentID {
		return nil
	}
	own, err := s.depts.GetDepartment(ctx, subject.DepartmentID)
	if err != nil {
		return err
	}
	if own.ParentID != nil && *own.ParentID == departmentID {
		return nil
	}
	return fmt.Errorf("department %d is not the caller's own or its parent: %w", departmentID, shared.ErrForbidden)
}
