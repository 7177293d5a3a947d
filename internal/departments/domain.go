package departments

import "time"

// Level bounds for the department hierarchy. Root departments sit at level 0;
// level 3 departments are terminal and may not gain children.
const (
	LevelRoot = 0
	LevelMax  = 3
)

// Department represents one organizational unit in the hierarchy.
type Department struct {
	ID           int64
	Name         string
	Level        int
	ParentID     *int64
	Description  string
	ManagerName  string
	ManagerPhone string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsRoot reports whether the department has no parent.
func (d Department) IsRoot() bool {
	return d.ParentID == nil
}

// Node is a department with its resolved children, as produced by BuildSubtree.
type Node struct {
	Department
	Children []*Node
}
