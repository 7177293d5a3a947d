package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orgward/orgward/internal/permissions"
	"github.com/orgward/orgward/internal/platform/httpx"
	"github.com/orgward/orgward/internal/rbac"
	"github.com/orgward/orgward/internal/shared"
)

// Handler manages user endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     mw,
		validate: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.UserList))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.UserView))
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.UserCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.UserUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.UserDelete))
		r.Delete("/{id}", h.remove)
	})
}

type createUserForm struct {
	Username     string  `json:"username" validate:"required,min=3,max=50"`
	Password     string  `json:"password" validate:"required,min=8,max=128"`
	IDNumber     string  `json:"id_number" validate:"max=32"`
	PhoneNumber  string  `json:"phone_number" validate:"max=30"`
	RealName     string  `json:"real_name" validate:"required,max=100"`
	DepartmentID int64   `json:"department_id" validate:"required"`
	RoleIDs      []int64 `json:"role_ids"`
}

type updateUserForm struct {
	PhoneNumber  string  `json:"phone_number" validate:"max=30"`
	RealName     string  `json:"real_name" validate:"required,max=100"`
	DepartmentID int64   `json:"department_id" validate:"required"`
	RoleIDs      []int64 `json:"role_ids"`
}

type userResponse struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	PhoneNumber  string  `json:"phone_number,omitempty"`
	RealName     string  `json:"real_name"`
	DepartmentID int64   `json:"department_id"`
	RoleIDs      []int64 `json:"role_ids"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var departmentID int64
	if raw := r.URL.Query().Get("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid department id")
			return
		}
		departmentID = id
	}
	list, err := h.service.ListByDepartment(r.Context(), subject, departmentID)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, user := range list {
		out = append(out, toResponse(user))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), subject, id)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var form createUserForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), subject, CreateInput{
		Username:     form.Username,
		Password:     form.Password,
		IDNumber:     form.IDNumber,
		PhoneNumber:  form.PhoneNumber,
		RealName:     form.RealName,
		DepartmentID: form.DepartmentID,
		RoleIDs:      form.RoleIDs,
	})
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var form updateUserForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), subject, id, UpdateInput{
		PhoneNumber:  form.PhoneNumber,
		RealName:     form.RealName,
		DepartmentID: form.DepartmentID,
		RoleIDs:      form.RoleIDs,
	})
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), subject, id); err != nil {
		h.respondError(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (shared.Subject, bool) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return shared.Subject{}, false
	}
	subject, err := h.service.LoadSubject(r.Context(), userID)
	if err != nil {
		h.respondError(w, "load subject", err)
		return shared.Subject{}, false
	}
	return subject, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func toResponse(user User) userResponse {
	roleIDs := user.RoleIDs
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		PhoneNumber:  user.PhoneNumber,
		RealName:     user.RealName,
		DepartmentID: user.DepartmentID,
		RoleIDs:      roleIDs,
	}
}
