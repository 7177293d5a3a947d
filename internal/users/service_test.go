package users

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/shared"
)

type mockUserStore struct {
	users  map[int64]User
	nextID int64
}

func newMockUserStore(users ...User) *mockUserStore {
	m := &mockUserStore{users: make(map[int64]User), nextID: 100}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) FindByUsername(ctx context.Context, username string) (User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *mockUserStore) ListByDepartment(ctx context.Context, departmentID int64) ([]User, error) {
	var list []User
	for _, u := range m.users {
		if u.DepartmentID == departmentID {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *mockUserStore) CreateUser(ctx context.Context, user User) (User, error) {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserStore) UpdateUser(ctx context.Context, id int64, phoneNumber, realName string, departmentID int64, roleIDs []int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	u.PhoneNumber = phoneNumber
	u.RealName = realName
	u.DepartmentID = departmentID
	u.RoleIDs = roleIDs
	m.users[id] = u
	return u, nil
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserStore) SetLoginAttempts(ctx context.Context, id int64, attempts int) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.LoginAttempts = attempts
	m.users[id] = u
	return nil
}

type stubDeptStore struct {
	depts map[int64]departments.Department
}

func (s *stubDeptStore) GetDepartment(ctx context.Context, id int64) (departments.Department, error) {
	dept, ok := s.depts[id]
	if !ok {
		return departments.Department{}, shared.ErrNotFound
	}
	return dept, nil
}

func (s *stubDeptStore) ListChildren(ctx context.Context, parentID int64) ([]departments.Department, error) {
	var children []departments.Department
	for _, d := range s.depts {
		if d.ParentID != nil && *d.ParentID == parentID {
			children = append(children, d)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func ptr(id int64) *int64 { return &id }

// fixture: 1 -> 2 -> 4, 1 -> 3
func newTestTree() *departments.Tree {
	return departments.NewTree(&stubDeptStore{depts: map[int64]departments.Department{
		1: {ID: 1, Level: 0},
		2: {ID: 2, Level: 1, ParentID: ptr(1)},
		3: {ID: 3, Level: 1, ParentID: ptr(1)},
		4: {ID: 4, Level: 2, ParentID: ptr(2)},
	}})
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func subjectIn(deptID int64) shared.Subject {
	return shared.Subject{UserID: 1, DepartmentID: deptID, RoleIDs: []int64{1}}
}

func TestCreateUserOwnOrDirectChild(t *testing.T) {
	store := newMockUserStore()
	svc := NewService(store, newTestTree(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, subjectIn(1), CreateInput{Username: "amy", Password: "secret123", RealName: "Amy", DepartmentID: 1})
	require.NoError(t, err)

	_, err = svc.Create(ctx, subjectIn(1), CreateInput{Username: "bo", Password: "secret123", RealName: "Bo", DepartmentID: 2})
	require.NoError(t, err)

	_, err = svc.Create(ctx, subjectIn(1), CreateInput{Username: "cy", Password: "secret123", RealName: "Cy", DepartmentID: 4})
	require.ErrorIs(t, err, shared.ErrForbidden, "grandchild department is out of create scope")
}

func TestCreateUserHashesPassword(t *testing.T) {
	store := newMockUserStore()
	svc := NewService(store, newTestTree(), nil)

	created, err := svc.Create(context.Background(), subjectIn(1), CreateInput{Username: "amy", Password: "secret123", RealName: "Amy", DepartmentID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")))
}

func TestGetUserScopedToSubtree(t *testing.T) {
	store := newMockUserStore(
		User{ID: 10, Username: "deep", DepartmentID: 4},
		User{ID: 11, Username: "aside", DepartmentID: 3},
	)
	svc := NewService(store, newTestTree(), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, subjectIn(2), 10)
	require.NoError(t, err)
	assert.Equal(t, "deep", got.Username)

	_, err = svc.Get(ctx, subjectIn(2), 11)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListByDepartmentDefaultsToOwn(t *testing.T) {
	store := newMockUserStore(
		User{ID: 10, DepartmentID: 2},
		User{ID: 11, DepartmentID: 2},
		User{ID: 12, DepartmentID: 3},
	)
	svc := NewService(store, newTestTree(), nil)
	ctx := context.Background()

	list, err := svc.ListByDepartment(ctx, subjectIn(2), 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListByDepartment(ctx, subjectIn(2), 3)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateUserMoveStaysInBounds(t *testing.T) {
	store := newMockUserStore(User{ID: 10, DepartmentID: 2, RealName: "Old"})
	svc := NewService(store, newTestTree(), nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, subjectIn(1), 10, UpdateInput{RealName: "New", DepartmentID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.DepartmentID)

	// destination outside own+direct-children is rejected
	_, err = svc.Update(ctx, subjectIn(1), 10, UpdateInput{RealName: "New", DepartmentID: 4})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestDeleteUserOwnDepartmentOnly(t *testing.T) {
	store := newMockUserStore(
		User{ID: 10, DepartmentID: 1},
		User{ID: 11, DepartmentID: 2},
	)
	svc := NewService(store, newTestTree(), nil)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, subjectIn(1), 10))
	require.ErrorIs(t, svc.Delete(ctx, subjectIn(1), 11), shared.ErrForbidden)
}

func TestAuthenticateSuccessResetsAttempts(t *testing.T) {
	store := newMockUserStore(User{
		ID: 10, Username: "amy", PasswordHash: hash(t, "secret123"), DepartmentID: 1, LoginAttempts: 3,
	})
	svc := NewService(store, newTestTree(), nil)

	user, err := svc.Authenticate(context.Background(), "amy", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.ID)
	assert.Equal(t, 0, store.users[10].LoginAttempts)
}

func TestAuthenticateWrongPasswordCountsAttempt(t *testing.T) {
	store := newMockUserStore(User{
		ID: 10, Username: "amy", PasswordHash: hash(t, "secret123"), DepartmentID: 1,
	})
	svc := NewService(store, newTestTree(), nil)

	_, err := svc.Authenticate(context.Background(), "amy", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	assert.Equal(t, 1, store.users[10].LoginAttempts)
}

func TestAuthenticateLockout(t *testing.T) {
	store := newMockUserStore(User{
		ID: 10, Username: "amy", PasswordHash: hash(t, "secret123"), DepartmentID: 1,
	})
	svc := NewService(store, newTestTree(), nil)
	ctx := context.Background()

	for i := 0; i < MaxLoginAttempts; i++ {
		_, err := svc.Authenticate(ctx, "amy", "wrong")
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}

	// even the correct password is rejected now
	_, err := svc.Authenticate(ctx, "amy", "secret123")
	require.ErrorIs(t, err, shared.ErrAccountLocked)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := NewService(newMockUserStore(), newTestTree(), nil)

	_, err := svc.Authenticate(context.Background(), "ghost", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials, "unknown usernames look like bad credentials")
}

func TestLoadSubject(t *testing.T) {
	store := newMockUserStore(User{ID: 10, DepartmentID: 2, RoleIDs: []int64{5, 6}})
	svc := NewService(store, newTestTree(), nil)

	subject, err := svc.LoadSubject(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), subject.UserID)
	assert.Equal(t, int64(2), subject.DepartmentID)
	assert.Equal(t, []int64{5, 6}, subject.RoleIDs)
}
