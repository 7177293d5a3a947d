package orgunits

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

// Handler manages org unit endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	subjects rbac.SubjectLoader
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, subjects rbac.SubjectLoader, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		subjects: subjects,
		rbac:     mw,
		validate: validator.New(),
	}
}

// MountRoutes registers org unit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitList))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitView))
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitDelete))
		r.Delete("/{id}", h.remove)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitMemberList))
		r.Get("/{id}/members", h.listMembers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitMemberAdd))
		r.Post("/{id}/members", h.addMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitMemberRemove))
		r.Delete("/{id}/members/{userID}", h.removeMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(permissions.OrgUnitMembershipList))
		r.Get("/memberships", h.listMemberships)
	})
}

type orgUnitForm struct {
	Name         string `json:"name" validate:"required,max=100"`
	DepartmentID int64  `json:"department_id"`
}

type memberForm struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type orgUnitResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID int64  `json:"department_id"`
}

type membershipResponse struct {
	ID        int64 `json:"id"`
	OrgUnitID int64 `json:"org_unit_id"`
	UserID    int64 `json:"user_id"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	departmentID, ok := h.queryID(w, r, "department_id")
	if !ok {
		return
	}
	units, err := h.service.ListByDepartment(r.Context(), subject, departmentID)
	if err != nil {
		h.respondError(w, "list org units", err)
		return
	}
	out := make([]orgUnitResponse, 0, len(units))
	for _, unit := range units {
		out = append(out, toResponse(unit))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	unit, err := h.service.Get(r.Context(), subject, id)
	if err != nil {
		h.respondError(w, "get org unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(unit))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var form orgUnitForm
	if !h.decodeForm(w, r, &form) {
		return
	}
	created, err := h.service.Create(r.Context(), subject, form.Name, form.DepartmentID)
	if err != nil {
		h.respondError(w, "create org unit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var form orgUnitForm
	if !h.decodeForm(w, r, &form) {
		return
	}
	updated, err := h.service.Update(r.Context(), subject, id, form.Name)
	if err != nil {
		h.respondError(w, "update org unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), subject, id); err != nil {
		h.respondError(w, "delete org unit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	memberships, err := h.service.ListMembers(r.Context(), subject, id)
	if err != nil {
		h.respondError(w, "list org unit members", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMembershipResponses(memberships))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var form memberForm
	if !h.decodeForm(w, r, &form) {
		return
	}
	created, err := h.service.AddMember(r.Context(), subject, id, form.UserID)
	if err != nil {
		h.respondError(w, "add org unit member", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, membershipResponse{
		ID:        created.ID,
		OrgUnitID: created.OrgUnitID,
		UserID:    created.UserID,
	})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), subject, id, userID); err != nil {
		h.respondError(w, "remove org unit member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMemberships(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	userID, ok := h.queryID(w, r, "user_id")
	if !ok {
		return
	}
	memberships, err := h.service.ListMembershipsByUser(r.Context(), subject, userID)
	if err != nil {
		h.respondError(w, "list memberships", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMembershipResponses(memberships))
}

func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (shared.Subject, bool) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return shared.Subject{}, false
	}
	subject, err := h.subjects.LoadSubject(r.Context(), userID)
	if err != nil {
		h.respondError(w, "load subject", err)
		return shared.Subject{}, false
	}
	return subject, true
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request, form any) bool {
	if err := httpx.DecodeJSON(r, form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return false
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param)
		return 0, false
	}
	return id, true
}

func (h *Handler) queryID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func toResponse(unit OrgUnit) orgUnitResponse {
	return orgUnitResponse{
		ID:           unit.ID,
		Name:         unit.Name,
		DepartmentID: unit.DepartmentID,
	}
}

func toMembershipResponses(memberships []Membership) []membershipResponse {
	out := make([]membershipResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, membershipResponse{
			ID:        m.ID,
			OrgUnitID: m.OrgUnitID,
			UserID:    m.UserID,
		})
	}
	return out
}
