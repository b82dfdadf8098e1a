package handler

import (
	"net/http"

	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type RoleHandler struct {
	roleSvc service.RoleServiceInterface
}

func NewRoleHandler(roleSvc service.RoleServiceInterface) *RoleHandler {
	return &RoleHandler{roleSvc: roleSvc}
}

type roleRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"roles": roles})
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role, err := h.roleSvc.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.role.created", "role_id", role.ID, "role_name", role.Name)
	response.JSON(w, r, http.StatusCreated, map[string]any{"role": role})
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "role not found", nil)
		return
	}
	var req roleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role, err := h.roleSvc.Update(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.role.updated", "role_id", role.ID, "role_name", role.Name)
	response.JSON(w, r, http.StatusOK, map[string]any{"role": role})
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "role not found", nil)
		return
	}
	if err := h.roleSvc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.role.deleted", "role_id", id)
	response.NoContent(w)
}
