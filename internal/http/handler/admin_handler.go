package handler

import (
	"context"
	"net/http"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/middleware"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type AdminHandler struct {
	userSvc service.UserServiceInterface
}

func NewAdminHandler(userSvc service.UserServiceInterface) *AdminHandler {
	return &AdminHandler{userSvc: userSvc}
}

type updateUserRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.userSvc.ListByRole(r.Context(), domain.RoleAdministrator)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"admins": admins})
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	}
	var req updateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	u, err := h.userSvc.Update(r.Context(), id, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.user.updated", "target_user_id", id, "actor_user_id", actorID(r))
	response.JSON(w, r, http.StatusOK, map[string]any{"user": u})
}

func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, h.userSvc.Block, "admin.user.blocked")
}

func (h *AdminHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, h.userSvc.Unblock, "admin.user.unblocked")
}

func (h *AdminHandler) setBlocked(w http.ResponseWriter, r *http.Request, apply func(context.Context, uint) error, event string) {
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	}
	if err := apply(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, event, "target_user_id", id, "actor_user_id", actorID(r))
	response.NoContent(w)
}

func actorID(r *http.Request) uint {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		return u.ID
	}
	return 0
}
