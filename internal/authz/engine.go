// Package authz decides whether a subject may act on a target department by
// combining capability checks with structural scoping rules derived from the
// department tree.
package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/permissions"
	"github.com/orgward/orgward/internal/rbac"
	"github.com/orgward/orgward/internal/shared"
)

// DecisionObserver records evaluation outcomes, typically into Prometheus.
type DecisionObserver interface {
	ObserveAuthzDecision(action, reason string)
}

// Engine composes the role resolver and the tree index into a single
// Evaluate entry point. It keeps no per-call state; every evaluation is a
// pure function of its inputs and the data visible through the collaborators.
type Engine struct {
	store        departments.Store
	tree         *departments.Tree
	resolver     *rbac.Resolver
	capabilities map[Action]string
	logger       *slog.Logger
	observer     DecisionObserver
}

// NewEngine constructs an Engine with the fixed capability table.
func NewEngine(store departments.Store, tree *departments.Tree, resolver *rbac.Resolver, logger *slog.Logger, observer DecisionObserver) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		tree:     tree,
		resolver: resolver,
		capabilities: map[Action]string{
			ActionCreateChild:       permissions.DeptCreate,
			ActionUpdateDirectChild: permissions.DeptUpdate,
			ActionDeleteDirectChild: permissions.DeptDelete,
			ActionReadScoped:        permissions.DeptView,
			ActionReadTree:          permissions.DeptViewTree,
		},
		logger:   logger,
		observer: observer,
	}
}

// Evaluate decides whether subject may perform action on the department
// identified by targetID. Deny outcomes are returned as values; an error
// means the evaluation could not complete (missing departments, corrupt
// hierarchy, or a failed collaborator read).
func (e *Engine) Evaluate(ctx context.Context, subject shared.Subject, action Action, targetID int64) (Decision, error) {
	subjectDept, err := e.store.GetDepartment(ctx, subject.DepartmentID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: subject department %d: %w", subject.DepartmentID, err)
	}
	target, err := e.store.GetDepartment(ctx, targetID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: target department %d: %w", targetID, err)
	}
	if malformed(subjectDept) || malformed(target) {
		return Decision{}, fmt.Errorf("authz: department is its own parent: %w", shared.ErrInvalidHierarchy)
	}

	decision, err := e.evaluate(ctx, subject, subjectDept, action, target)
	if err != nil {
		return Decision{}, err
	}
	e.record(subject, action, target, decision)
	return decision, nil
}

func (e *Engine) evaluate(ctx context.Context, subject shared.Subject, subjectDept departments.Department, action Action, target departments.Department) (Decision, error) {
	required, ok := e.capabilities[action]
	if !ok {
		return Decision{}, fmt.Errorf("authz: no capability mapped for action %s", action)
	}
	granted, err := e.resolver.HasPermission(ctx, subject.RoleIDs, required)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: resolve permissions: %w", err)
	}
	if !granted {
		return Deny(ReasonPermissionDenied), nil
	}

	switch action {
	case ActionCreateChild:
		// Children are only created inside the subject's own department.
		if target.ID != subjectDept.ID {
			return Deny(ReasonOutOfScope), nil
		}
		if subjectDept.Level >= departments.LevelMax {
			return Deny(ReasonLevelLimitExceeded), nil
		}
	case ActionUpdateDirectChild, ActionDeleteDirectChild:
		direct, err := e.tree.IsDirectChild(ctx, subjectDept.ID, target.ID)
		if err != nil {
			return Decision{}, err
		}
		if !direct {
			return Deny(ReasonNotDirectChild), nil
		}
	case ActionReadScoped, ActionReadTree:
		if target.ID != subjectDept.ID {
			descendant, err := e.tree.IsDescendant(ctx, subjectDept.ID, target.ID)
			if err != nil {
				return Decision{}, err
			}
			if !descendant {
				return Deny(ReasonOutOfScope), nil
			}
		}
	}
	return Allow, nil
}

func (e *Engine) record(subject shared.Subject, action Action, target departments.Department, decision Decision) {
	if e.observer != nil {
		e.observer.ObserveAuthzDecision(action.String(), string(decision.Reason))
	}
	e.logger.Debug("authz decision",
		slog.Int64("user", subject.UserID),
		slog.String("action", action.String()),
		slog.Int64("target", target.ID),
		slog.Bool("allowed", decision.Allowed),
		slog.String("reason", string(decision.Reason)),
	)
}

func malformed(dept departments.Department) bool {
	return dept.ParentID != nil && *dept.ParentID == dept.ID
}
