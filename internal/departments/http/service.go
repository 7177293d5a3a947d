package http

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/orgward/orgward/internal/authz"
	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/shared"
)

// Store extends the tree's read-only view with the mutations the service
// needs.
type Store interface {
	departments.Store
	CreateDepartment(ctx context.Context, dept departments.Department) (departments.Department, error)
	UpdateDepartment(ctx context.Context, id int64, name, description, managerName, managerPhone string) (departments.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
}

// CreateInput carries the fields of a new department. The parent and level
// are derived from the caller's department, never supplied by the client.
type CreateInput struct {
	Name         string
	Description  string
	ManagerName  string
	ManagerPhone string
}

// UpdateInput carries the mutable fields of a department.
type UpdateInput struct {
	Name         string
	Description  string
	ManagerName  string
	ManagerPhone string
}

// Service wraps department business rules. Every operation is evaluated by
// the authorization engine before it touches the store.
type Service struct {
	store  Store
	tree   *departments.Tree
	engine *authz.Engine
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, tree *departments.Tree, engine *authz.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tree: tree, engine: engine, logger: logger}
}

// Create adds a child department directly under the subject's own department.
func (s *Service) Create(ctx context.Context, subject shared.Subject, input CreateInput) (departments.Department, error) {
	decision, err := s.engine.Evaluate(ctx, subject, authz.ActionCreateChild, subject.DepartmentID)
	if err != nil {
		return departments.Department{}, err
	}
	if !decision.Allowed {
		return departments.Department{}, denied(decision)
	}

	parent, err := s.store.GetDepartment(ctx, subject.DepartmentID)
	if err != nil {
		return departments.Department{}, err
	}
	parentID := parent.ID
	created, err := s.store.CreateDepartment(ctx, departments.Department{
		Name:         input.Name,
		Level:        parent.Level + 1,
		ParentID:     &parentID,
		Description:  input.Description,
		ManagerName:  input.ManagerName,
		ManagerPhone: input.ManagerPhone,
	})
	if err != nil {
		return departments.Department{}, err
	}
	s.logger.Info("department created",
		slog.Int64("id", created.ID),
		slog.Int64("parent", parentID),
		slog.Int("level", created.Level),
	)
	return created, nil
}

// Update modifies a direct child of the subject's department.
func (s *Service) Update(ctx context.Context, subject shared.Subject, id int64, input UpdateInput) (departments.Department, error) {
	decision, err := s.engine.Evaluate(ctx, subject, authz.ActionUpdateDirectChild, id)
	if err != nil {
		return departments.Department{}, err
	}
	if !decision.Allowed {
		return departments.Department{}, denied(decision)
	}
	return s.store.UpdateDepartment(ctx, id, input.Name, input.Description, input.ManagerName, input.ManagerPhone)
}

// Delete removes a direct child of the subject's department.
func (s *Service) Delete(ctx context.Context, subject shared.Subject, id int64) error {
	decision, err := s.engine.Evaluate(ctx, subject, authz.ActionDeleteDirectChild, id)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return denied(decision)
	}
	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("department deleted", slog.Int64("id", id))
	return nil
}

// Get returns a department inside the subject's scope: the subject's own
// department or any of its descendants.
func (s *Service) Get(ctx context.Context, subject shared.Subject, id int64) (departments.Department, error) {
	decision, err := s.engine.Evaluate(ctx, subject, authz.ActionReadScoped, id)
	if err != nil {
		return departments.Department{}, err
	}
	if !decision.Allowed {
		return departments.Department{}, denied(decision)
	}
	return s.store.GetDepartment(ctx, id)
}

// Own returns the subject's own department without an authorization round
// trip; membership is scope enough.
func (s *Service) Own(ctx context.Context, subject shared.Subject) (departments.Department, error) {
	return s.store.GetDepartment(ctx, subject.DepartmentID)
}

// Subtree materializes the tree rooted at the subject's own department.
// Concurrent builds for the same root are coalesced; the capability check
// runs per caller, before any sharing.
func (s *Service) Subtree(ctx context.Context, subject shared.Subject) (*departments.Node, error) {
	decision, err := s.engine.Evaluate(ctx, subject, authz.ActionReadTree, subject.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denied(decision)
	}
	key := "tree:" + strconv.FormatInt(subject.DepartmentID, 10)
	root, err, _ := singleflightSubtree(ctx, key, func(ctx context.Context) (*departments.Node, error) {
		return s.tree.BuildSubtree(ctx, subject.DepartmentID)
	})
	return root, err
}

// ListSubtree flattens the subject's subtree into a name-collated list, for
// pickers and exports where tree shape does not matter.
func (s *Service) ListSubtree(ctx context.Context, subject shared.Subject) ([]departments.Department, error) {
	root, err := s.Subtree(ctx, subject)
	if err != nil {
		return nil, err
	}
	var flat []departments.Department
	stack := []*departments.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		flat = append(flat, node.Department)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	collator := collate.New(language.Und)
	sort.SliceStable(flat, func(i, j int) bool {
		return collator.CompareString(flat[i].Name, flat[j].Name) < 0
	})
	return flat, nil
}

func denied(decision authz.Decision) error {
	return fmt.Errorf("%s: %w", decision.Reason, shared.ErrForbidden)
}
