package departments

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgward/orgward/internal/shared"
)

type stubStore struct {
	depts map[int64]Department
}

func newStubStore(depts ...Department) *stubStore {
	s := &stubStore{depts: make(map[int64]Department, len(depts))}
	for _, d := range depts {
		s.depts[d.ID] = d
	}
	return s
}

func (s *stubStore) GetDepartment(ctx context.Context, id int64) (Department, error) {
	dept, ok := s.depts[id]
	if !ok {
		return Department{}, shared.ErrNotFound
	}
	return dept, nil
}

func (s *stubStore) ListChildren(ctx context.Context, parentID int64) ([]Department, error) {
	var children []Department
	for _, d := range s.depts {
		if d.ParentID != nil && *d.ParentID == parentID {
			children = append(children, d)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func ptr(id int64) *int64 { return &id }

// fixture: 1 -> (2 -> 4, 3)
func hierarchyFixture() *stubStore {
	return newStubStore(
		Department{ID: 1, Name: "HQ", Level: 0},
		Department{ID: 2, Name: "Engineering", Level: 1, ParentID: ptr(1)},
		Department{ID: 3, Name: "Sales", Level: 1, ParentID: ptr(1)},
		Department{ID: 4, Name: "Platform", Level: 2, ParentID: ptr(2)},
	)
}

func TestIsDirectChild(t *testing.T) {
	tree := NewTree(hierarchyFixture())
	ctx := context.Background()

	direct, err := tree.IsDirectChild(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, direct)

	direct, err = tree.IsDirectChild(ctx, 1, 4)
	require.NoError(t, err)
	assert.False(t, direct, "grandchild is not a direct child")

	direct, err = tree.IsDirectChild(ctx, 2, 3)
	require.NoError(t, err)
	assert.False(t, direct, "sibling is not a direct child")
}

func TestIsDirectChildMissingDepartment(t *testing.T) {
	tree := NewTree(hierarchyFixture())

	_, err := tree.IsDirectChild(context.Background(), 1, 99)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = tree.IsDirectChild(context.Background(), 99, 2)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChildrenOrderedByID(t *testing.T) {
	tree := NewTree(hierarchyFixture())

	children, err := tree.Children(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, int64(2), children[0].ID)
	assert.Equal(t, int64(3), children[1].ID)
}

func TestBuildSubtreeVisitsEachNodeOnce(t *testing.T) {
	tree := NewTree(hierarchyFixture())

	root, err := tree.BuildSubtree(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	assert.Equal(t, int64(2), root.Children[0].ID)
	assert.Equal(t, int64(3), root.Children[1].ID)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, int64(4), root.Children[0].Children[0].ID)
	assert.Empty(t, root.Children[1].Children)
}

func TestBuildSubtreePartialRoot(t *testing.T) {
	tree := NewTree(hierarchyFixture())

	root, err := tree.BuildSubtree(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), root.ID)
	require.Len(t, root.Children, 1)
	assert.Equal(t, int64(4), root.Children[0].ID)
}

func TestBuildSubtreeDetectsCycle(t *testing.T) {
	// 1 -> 2 -> 3 and 3 claims 1 as a child again via parent pointer abuse:
	// make 1 a child of 3 so the walk revisits it.
	store := newStubStore(
		Department{ID: 1, Name: "A", Level: 0, ParentID: ptr(3)},
		Department{ID: 2, Name: "B", Level: 1, ParentID: ptr(1)},
		Department{ID: 3, Name: "C", Level: 2, ParentID: ptr(2)},
	)
	tree := NewTree(store)

	_, err := tree.BuildSubtree(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrInvalidHierarchy)
}

func TestBuildSubtreeMissingRoot(t *testing.T) {
	tree := NewTree(hierarchyFixture())

	_, err := tree.BuildSubtree(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestIsDescendant(t *testing.T) {
	tree := NewTree(hierarchyFixture())
	ctx := context.Background()

	deep, err := tree.IsDescendant(ctx, 1, 4)
	require.NoError(t, err)
	assert.True(t, deep, "grandchild is a descendant")

	sibling, err := tree.IsDescendant(ctx, 2, 3)
	require.NoError(t, err)
	assert.False(t, sibling)

	self, err := tree.IsDescendant(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, self, "a department is not its own descendant")

	up, err := tree.IsDescendant(ctx, 4, 1)
	require.NoError(t, err)
	assert.False(t, up, "ancestor is not a descendant")
}

func TestIsDescendantDetectsParentLoop(t *testing.T) {
	store := newStubStore(
		Department{ID: 1, Name: "Root", Level: 0},
		Department{ID: 2, Name: "B", Level: 1, ParentID: ptr(3)},
		Department{ID: 3, Name: "C", Level: 2, ParentID: ptr(2)},
	)
	tree := NewTree(store)

	_, err := tree.IsDescendant(context.Background(), 1, 2)
	require.ErrorIs(t, err, shared.ErrInvalidHierarchy)
}
