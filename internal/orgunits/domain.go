// Package orgunits manages named units inside a department (project groups,
// committees, shift teams) and their user memberships. Units never nest and
// never span departments.
package orgunits

import "time"

// OrgUnit is a flat grouping that belongs to exactly one department.
type OrgUnit struct {
	ID           int64
	Name         string
	DepartmentID int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Membership links a user to an org unit. Both sides must live in the same
// department as the unit at assignment time.
type Membership struct {
	ID        int64
	OrgUnitID int64
	UserID    int64
}
