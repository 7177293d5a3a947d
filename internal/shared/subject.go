package shared

// Subject identifies the acting user for authorization purposes: who they
// are, where they sit in the hierarchy, and which roles they hold.
type Subject struct {
	UserID       int64
	DepartmentID int64
	RoleIDs      []int64
}
