package permissions

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/orgward/orgward/internal/platform/httpx"
	"github.com/orgward/orgward/internal/shared"
)

// Handler exposes the capability catalog, mainly for role editing UIs.
type Handler struct {
	registry *Registry
}

// NewHandler builds a Handler instance.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// MountRoutes registers the catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

type permissionResponse struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.CurrentUserID(r.Context()); !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return
	}
	entries := h.registry.All()
	out := make([]permissionResponse, 0, len(entries))
	for key, name := range entries {
		out = append(out, permissionResponse{Key: key, DisplayName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	httpx.JSON(w, http.StatusOK, out)
}
