// Package http exposes the department hierarchy over JSON endpoints.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orgward/orgward/internal/departments"
	"github.com/orgward/orgward/internal/platform/httpx"
	"github.com/orgward/orgward/internal/rbac"
	"github.com/orgward/orgward/internal/shared"
)

// Handler exposes department endpoints. Capability and scope checks run in
// the service through the authorization engine, so no permission middleware
// is mounted here.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	subjects rbac.SubjectLoader
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, subjects rbac.SubjectLoader) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		subjects: subjects,
		validate: validator.New(),
	}
}

// MountRoutes registers department routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/me", h.own)
	r.Get("/tree", h.tree)
	r.Get("/flat", h.flat)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type departmentForm struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=500"`
	ManagerName  string `json:"manager_name" validate:"max=100"`
	ManagerPhone string `json:"manager_phone" validate:"max=30"`
}

type departmentResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Level        int    `json:"level"`
	ParentID     *int64 `json:"parent_id"`
	Description  string `json:"description,omitempty"`
	ManagerName  string `json:"manager_name,omitempty"`
	ManagerPhone string `json:"manager_phone,omitempty"`
}

type nodeResponse struct {
	departmentResponse
	Children []nodeResponse `json:"children"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), subject, CreateInput{
		Name:         form.Name,
		Description:  form.Description,
		ManagerName:  form.ManagerName,
		ManagerPhone: form.ManagerPhone,
	})
	if err != nil {
		h.respondError(w, "create department", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) own(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	dept, err := h.service.Own(r.Context(), subject)
	if err != nil {
		h.respondError(w, "own department", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(dept))
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
	dept, err := h.service.Get(r.Context(), subject, id)
	if err != nil {
		h.respondError(w, "get department", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(dept))
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
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), subject, id, UpdateInput{
		Name:         form.Name,
		Description:  form.Description,
		ManagerName:  form.ManagerName,
		ManagerPhone: form.ManagerPhone,
	})
	if err != nil {
		h.respondError(w, "update department", err)
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
		h.respondError(w, "delete department", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	root, err := h.service.Subtree(r.Context(), subject)
	if err != nil {
		h.respondError(w, "department tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toNodeResponse(root))
}

func (h *Handler) flat(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	depts, err := h.service.ListSubtree(r.Context(), subject)
	if err != nil {
		h.respondError(w, "flat department list", err)
		return
	}
	out := make([]departmentResponse, 0, len(depts))
	for _, dept := range depts {
		out = append(out, toResponse(dept))
	}
	httpx.JSON(w, http.StatusOK, out)
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

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (departmentForm, bool) {
	var form departmentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return form, false
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid department id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func toResponse(dept departments.Department) departmentResponse {
	return departmentResponse{
		ID:           dept.ID,
		Name:         dept.Name,
		Level:        dept.Level,
		ParentID:     dept.ParentID,
		Description:  dept.Description,
		ManagerName:  dept.ManagerName,
		ManagerPhone: dept.ManagerPhone,
	}
}

func toNodeResponse(node *departments.Node) nodeResponse {
	out := nodeResponse{departmentResponse: toResponse(node.Department)}
	out.Children = make([]nodeResponse, 0, len(node.Children))
	for _, child := range node.Children {
		out.Children = append(out.Children, toNodeResponse(child))
	}
	return out
}
