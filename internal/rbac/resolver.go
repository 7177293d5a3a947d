package rbac

import (
	"context"
	"errors"

	"github.com/orgward/orgward/internal/shared"
)

// RoleStore is the data-access collaborator role lookups go through.
type RoleStore interface {
	GetRole(ctx context.Context, id int64) (Role, error)
}

// Resolver computes the effective permission set of a subject from its
// assigned role ids.
type Resolver struct {
	store RoleStore
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store RoleStore) *Resolver {
	return &Resolver{store: store}
}

// EffectivePermissions unions the permission keys of every resolvable role.
// Dangling role ids are skipped: a stale reference contributes nothing but
// must not break authorization for the subject.
func (r *Resolver) EffectivePermissions(ctx context.Context, roleIDs []int64) (map[string]struct{}, error) {
	perms := make(map[string]struct{})
	for _, id := range roleIDs {
		role, err := r.store.GetRole(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		for _, key := range role.PermissionKeys {
			perms[key] = struct{}{}
		}
	}
	return perms, nil
}

// HasPermission reports whether the subject's effective permission set
// contains key. The key is matched against the roles' own key sets; the
// permission registry is display metadata and is not consulted here.
func (r *Resolver) HasPermission(ctx context.Context, roleIDs []int64, key string) (bool, error) {
	perms, err := r.EffectivePermissions(ctx, roleIDs)
	if err != nil {
		return false, err
	}
	_, ok := perms[key]
	return ok, nil
}
