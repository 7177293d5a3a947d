package http

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/orgward/orgward/internal/departments"
)

var treeBuildGroup singleflight.Group

func singleflightSubtree(ctx context.Context, key string, fn func(context.Context) (*departments.Node, error)) (*departments.Node, error, bool) {
	resultChan := treeBuildGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		node, _ := res.Val.(*departments.Node)
		return node, res.Err, res.Shared
	}
}
