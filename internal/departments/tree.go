package departments

import (
	"context"
	"fmt"

	"github.com/orgward/orgward/internal/shared"
)

// Store is the data-access collaborator the tree index reads from.
// Implementations must return children ordered by id ascending.
type Store interface {
	GetDepartment(ctx context.Context, id int64) (Department, error)
	ListChildren(ctx context.Context, parentID int64) ([]Department, error)
}

// Tree answers relationship queries over the department hierarchy.
// It holds no state of its own; every query reads through the Store.
type Tree struct {
	store Store
}

// NewTree constructs a Tree over the given store.
func NewTree(store Store) *Tree {
	return &Tree{store: store}
}

// IsDirectChild reports whether childID is a direct child of parentID.
// Both ids must resolve to existing departments.
func (t *Tree) IsDirectChild(ctx context.Context, parentID, childID int64) (bool, error) {
	if _, err := t.store.GetDepartment(ctx, parentID); err != nil {
		return false, err
	}
	child, err := t.store.GetDepartment(ctx, childID)
	if err != nil {
		return false, err
	}
	return child.ParentID != nil && *child.ParentID == parentID, nil
}

// Children returns the direct children of parentID, ordered by id ascending.
func (t *Tree) Children(ctx context.Context, parentID int64) ([]Department, error) {
	if _, err := t.store.GetDepartment(ctx, parentID); err != nil {
		return nil, err
	}
	return t.store.ListChildren(ctx, parentID)
}

// BuildSubtree materializes the subtree rooted at rootID. Expansion is
// iterative over an explicit work list so stack depth stays bounded for
// arbitrarily deep trees. Revisiting an already expanded id means the parent
// links form a cycle and the build fails with ErrInvalidHierarchy.
func (t *Tree) BuildSubtree(ctx context.Context, rootID int64) (*Node, error) {
	rootDept, err := t.store.GetDepartment(ctx, rootID)
	if err != nil {
		return nil, err
	}

	root := &Node{Department: rootDept}
	visited := map[int64]struct{}{rootID: {}}
	queue := []*Node{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := t.store.ListChildren(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				return nil, fmt.Errorf("department %d revisited under %d: %w", child.ID, current.ID, shared.ErrInvalidHierarchy)
			}
			visited[child.ID] = struct{}{}
			node := &Node{Department: child}
			current.Children = append(current.Children, node)
			queue = append(queue, node)
		}
	}
	return root, nil
}

// IsDescendant reports whether nodeID sits anywhere in the subtree rooted at
// ancestorID. It walks parent links upward from nodeID, which costs O(depth)
// instead of materializing the subtree. A repeated id on the walk means the
// parent chain loops and the query fails with ErrInvalidHierarchy.
func (t *Tree) IsDescendant(ctx context.Context, ancestorID, nodeID int64) (bool, error) {
	if _, err := t.store.GetDepartment(ctx, ancestorID); err != nil {
		return false, err
	}
	current, err := t.store.GetDepartment(ctx, nodeID)
	if err != nil {
		return false, err
	}
	if ancestorID == nodeID {
		return false, nil
	}

	seen := map[int64]struct{}{current.ID: {}}
	for current.ParentID != nil {
		parentID := *current.ParentID
		if parentID == ancestorID {
			return true, nil
		}
		if _, looped := seen[parentID]; looped {
			return false, fmt.Errorf("parent chain of department %d loops at %d: %w", nodeID, parentID, shared.ErrInvalidHierarchy)
		}
		seen[parentID] = struct{}{}
		current, err = t.store.GetDepartment(ctx, parentID)
		if err != nil {
			return false, err
		}
	}
	return false, nil
}
