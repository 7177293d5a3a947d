package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orgward/orgward/internal/auth"
	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/shared"
	"github.com/orgward/orgward/internal/users"
	_ "github.com/orgward/orgward/testing"
)

type stubUserStore struct {
	user users.User
}

func (s *stubUserStore) GetUser(ctx context.Context, id int64) (users.User, error) {
	if s.user.ID != id {
		return users.User{}, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserStore) FindByUsername(ctx context.Context, username string) (users.User, error) {
	if s.user.Username != username {
		return users.User{}, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserStore) ListByDepartment(ctx context.Context, departmentID int64) ([]users.User, error) {
	return nil, nil
}

func (s *stubUserStore) CreateUser(ctx context.Context, user users.User) (users.User, error) {
	return user, nil
}

func (s *stubUserStore) UpdateUser(ctx context.Context, id int64, phoneNumber, realName string, departmentID int64, roleIDs []int64) (users.User, error) {
	return s.user, nil
}

func (s *stubUserStore) DeleteUser(ctx context.Context, id int64) error { return nil }

func (s *stubUserStore) SetLoginAttempts(ctx context.Context, id int64, attempts int) error {
	s.user.LoginAttempts = attempts
	return nil
}

type stubDeptStore struct{}

func (stubDeptStore) GetDepartment(ctx context.Context, id int64) (departments.Department, error) {
	return departments.Department{ID: id}, nil
}

func (stubDeptStore) ListChildren(ctx context.Context, parentID int64) ([]departments.Department, error) {
	return nil, nil
}

func newHandler(t *testing.T, store users.Store) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	service := users.NewService(store, departments.NewTree(stubDeptStore{}), nil)
	return auth.NewHandler(nil, service, sessions), sessions
}

func testUser(t *testing.T) users.User {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return users.User{
		ID: 10, Username: "amy", PasswordHash: string(h),
		RealName: "Amy", DepartmentID: 2,
	}
}

func doLogin(t *testing.T, handler *auth.Handler, sessions *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rr := httptest.NewRecorder()
	handlerMux(handler).ServeHTTP(rr, req)
	return rr, sess
}

func handlerMux(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func TestLoginSuccess(t *testing.T) {
	store := &stubUserStore{user: testUser(t)}
	handler, sessions := newHandler(t, store)

	rr, sess := doLogin(t, handler, sessions, `{"username":"amy","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "10", sess.User())

	var resp struct {
		UserID       int64  `json:"user_id"`
		Username     string `json:"username"`
		DepartmentID int64  `json:"department_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(10), resp.UserID)
	assert.Equal(t, "amy", resp.Username)
	assert.Equal(t, int64(2), resp.DepartmentID)
}

func TestLoginWrongPassword(t *testing.T) {
	store := &stubUserStore{user: testUser(t)}
	handler, sessions := newHandler(t, store)

	rr, sess := doLogin(t, handler, sessions, `{"username":"amy","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, sess.User())
}

func TestLoginValidation(t *testing.T) {
	store := &stubUserStore{user: testUser(t)}
	handler, sessions := newHandler(t, store)

	rr, _ := doLogin(t, handler, sessions, `{"username":"amy"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLockedAccount(t *testing.T) {
	user := testUser(t)
	user.LoginAttempts = users.MaxLoginAttempts
	handler, sessions := newHandler(t, &stubUserStore{user: user})

	rr, _ := doLogin(t, handler, sessions, `{"username":"amy","password":"secret123"}`)
	assert.Equal(t, http.StatusLocked, rr.Code)
}

func TestWhoamiRequiresLogin(t *testing.T) {
	handler, _ := newHandler(t, &stubUserStore{user: testUser(t)})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := httptest.NewRecorder()
	handlerMux(handler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWhoamiReturnsOwnRecord(t *testing.T) {
	handler, _ := newHandler(t, &stubUserStore{user: testUser(t)})

	sess := &shared.Session{}
	sess.SetUser("10")
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	handlerMux(handler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"amy"`)
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, _ := newHandler(t, &stubUserStore{user: testUser(t)})

	sess := &shared.Session{}
	sess.SetUser("10")
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	handlerMux(handler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
