// Package jobs contains the background task definitions and the Asynq
// worker plumbing around them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskHierarchyIntegrity walks every department tree and reports
	// structural damage: parent cycles and broken level numbering.
	TaskHierarchyIntegrity = "hierarchy:integrity"
)

// HierarchyIntegrityPayload narrows an integrity scan to one root when
// RootID is non-zero; zero means scan every root.
type HierarchyIntegrityPayload struct {
	RootID int64 `json:"root_id"`
}

// NewHierarchyIntegrityTask constructs the Asynq task for an integrity scan.
func NewHierarchyIntegrityTask(payload HierarchyIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHierarchyIntegrity, data), nil
}
