package users

import "time"

// MaxLoginAttempts locks an account after this many consecutive failures.
const MaxLoginAttempts = 5

// User represents a platform account. RoleIDs may reference roles that no
// longer exist; the permission resolver skips those.
type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	IDNumber      string
	PhoneNumber   string
	RealName      string
	DepartmentID  int64
	LoginAttempts int
	RoleIDs       []int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Locked reports whether the account is locked out of login.
func (u User) Locked() bool {
	return u.LoginAttempts >= MaxLoginAttempts
}
