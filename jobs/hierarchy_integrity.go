package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/orgward/orgward/internal/departments"
	jobmetrics "github.com/orgward/orgward/internal/jobs"
	"github.com/orgward/orgward/internal/shared"
)

// RootLister extends the tree store with access to the hierarchy roots.
type RootLister interface {
	departments.Store
	ListRoots(ctx context.Context) ([]departments.Department, error)
}

// IntegrityChecker walks department trees and verifies their structural
// invariants hold in storage.
type IntegrityChecker struct {
	store   RootLister
	tree    *departments.Tree
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewIntegrityChecker constructs an IntegrityChecker. metrics may be nil.
func NewIntegrityChecker(store RootLister, tree *departments.Tree, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityChecker{store: store, tree: tree, logger: logger, metrics: metrics}
}

// HandleTask processes TaskHierarchyIntegrity tasks.
func (c *IntegrityChecker) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload HierarchyIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return c.Run(ctx, payload.RootID)
}

// Run scans one root, or every root when rootID is zero. It returns an
// error only when the scan itself cannot proceed; structural findings are
// logged and counted so a damaged tree does not hide damage in the next.
func (c *IntegrityChecker) Run(ctx context.Context, rootID int64) error {
	tracker := c.metrics.Track("hierarchy_integrity")
	return tracker.End(c.run(ctx, rootID))
}

func (c *IntegrityChecker) run(ctx context.Context, rootID int64) error {
	var roots []departments.Department
	if rootID != 0 {
		root, err := c.store.GetDepartment(ctx, rootID)
		if err != nil {
			return fmt.Errorf("load root %d: %w", rootID, err)
		}
		roots = []departments.Department{root}
	} else {
		var err error
		roots, err = c.store.ListRoots(ctx)
		if err != nil {
			return fmt.Errorf("list roots: %w", err)
		}
	}

	findings := 0
	for _, root := range roots {
		findings += c.scanRoot(ctx, root)
	}
	c.logger.Info("hierarchy integrity scan finished",
		slog.Int("roots", len(roots)),
		slog.Int("findings", findings))
	return nil
}

func (c *IntegrityChecker) scanRoot(ctx context.Context, root departments.Department) int {
	node, err := c.tree.BuildSubtree(ctx, root.ID)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidHierarchy) {
			c.logger.Error("parent cycle detected",
				slog.Int64("root", root.ID),
				slog.Any("error", err))
			c.metrics.AddFindings("cycle", 1)
			return 1
		}
		c.logger.Error("subtree walk failed",
			slog.Int64("root", root.ID),
			slog.Any("error", err))
		return 1
	}

	findings := 0
	if root.ParentID == nil && root.Level != departments.LevelRoot {
		c.logger.Warn("root has non-zero level",
			slog.Int64("department", root.ID),
			slog.Int("level", root.Level))
		findings++
	}
	findings += c.checkLevels(node)
	c.metrics.AddFindings("level", findings)
	return findings
}

// checkLevels verifies every child sits exactly one level below its parent
// and no node exceeds the depth cap.
func (c *IntegrityChecker) checkLevels(node *departments.Node) int {
	findings := 0
	if node.Level > departments.LevelMax {
		c.logger.Warn("department exceeds depth cap",
			slog.Int64("department", node.ID),
			slog.Int("level", node.Level))
		findings++
	}
	for _, child := range node.Children {
		if child.Level != node.Level+1 {
			c.logger.Warn("child level does not follow parent",
				slog.Int64("parent", node.ID),
				slog.Int64("child", child.ID),
				slog.Int("parent_level", node.Level),
				slog.Int("child_level", child.Level))
			findings++
		}
		findings += c.checkLevels(child)
	}
	return findings
}
