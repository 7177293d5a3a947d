package rbac

import "time"

// Role groups permission keys and belongs to one department.
type Role struct {
	ID             int64
	Name           string
	Description    string
	PermissionKeys []string
	DepartmentID   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
