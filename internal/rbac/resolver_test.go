package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgward/orgward/internal/shared"
)

type stubRoleStore struct {
	roles   map[int64]Role
	failure error
}

func (s *stubRoleStore) GetRole(ctx context.Context, id int64) (Role, error) {
	if s.failure != nil {
		return Role{}, s.failure
	}
	role, ok := s.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func TestEffectivePermissionsUnion(t *testing.T) {
	store := &stubRoleStore{roles: map[int64]Role{
		1: {ID: 1, PermissionKeys: []string{"department.view.get", "department.view.tree"}},
		2: {ID: 2, PermissionKeys: []string{"department.view.get", "user.view.list"}},
	}}
	resolver := NewResolver(store)

	perms, err := resolver.EffectivePermissions(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, perms, 3)
	assert.Contains(t, perms, "department.view.get")
	assert.Contains(t, perms, "department.view.tree")
	assert.Contains(t, perms, "user.view.list")
}

func TestEffectivePermissionsSkipsDanglingRoles(t *testing.T) {
	store := &stubRoleStore{roles: map[int64]Role{
		1: {ID: 1, PermissionKeys: []string{"role.view.get"}},
	}}
	resolver := NewResolver(store)

	withDangling, err := resolver.EffectivePermissions(context.Background(), []int64{1, 99})
	require.NoError(t, err)
	without, err := resolver.EffectivePermissions(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, without, withDangling, "dangling id must behave like an absent assignment")
}

func TestEffectivePermissionsEmptyAssignment(t *testing.T) {
	resolver := NewResolver(&stubRoleStore{roles: map[int64]Role{}})

	perms, err := resolver.EffectivePermissions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestEffectivePermissionsPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	resolver := NewResolver(&stubRoleStore{failure: boom})

	_, err := resolver.EffectivePermissions(context.Background(), []int64{1})
	require.ErrorIs(t, err, boom)
}

func TestHasPermission(t *testing.T) {
	store := &stubRoleStore{roles: map[int64]Role{
		1: {ID: 1, PermissionKeys: []string{"department.manage.create"}},
	}}
	resolver := NewResolver(store)

	ok, err := resolver.HasPermission(context.Background(), []int64{1}, "department.manage.create")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.HasPermission(context.Background(), []int64{1}, "department.manage.delete")
	require.NoError(t, err)
	assert.False(t, ok)
}
