package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/queue"
	"github.com/exitboard/exitboard/internal/repository"
	queue_publisher "github.com/exitboard/exitboard/internal/service"
)

// AdminHandler implements the user-management endpoints.  Every route it
// serves sits behind SessionGate plus RequireRole(ADMIN), so the handlers
// only deal with target validation and the self-lockout guard.
type AdminHandler struct {
	Users  *repository.UserRepo
	Events *queue_publisher.SecurityPublisher
}

func NewAdminHandler(u *repository.UserRepo, ev *queue_publisher.SecurityPublisher) *AdminHandler {
	return &AdminHandler{Users: u, Events: ev}
}

type updateUserReq struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}
type forceLogoutReq struct {
	UserID string `json:"user_id"`
}

// ListUsers returns every user for the admin panel.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return c.JSON(http.StatusOK, out)
}

// GetUser returns one user by id.
func (h *AdminHandler) GetUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// UpdateUser changes a user's role and/or account status.  Deactivating an
// account also advances the invalidation watermark in the same flow: the
// status flip blocks new sign-ins, but only the watermark kills tokens that
// are already out there.  An admin cannot deactivate their own account.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	targetID := c.Param("id")
	actorID, _ := c.Get("user_id").(string)

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if role == "" && status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if role != "" && role != model.RoleUser && role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	if status != "" && status != model.StatusActive && status != model.StatusDeactivated {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if status == model.StatusDeactivated && targetID == actorID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Cannot deactivate your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	if role != "" {
		if err := h.Users.UpdateRole(ctx, targetID, role); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
		}
	}
	if status != "" {
		if err := h.Users.SetStatus(ctx, targetID, status); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
		}
		if status == model.StatusDeactivated {
			if err := h.Users.Invalidate(ctx, targetID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
			}
			h.publish(ctx, queue.EventDeactivated, targetID, actorID)
		} else {
			h.publish(ctx, queue.EventReactivated, targetID, actorID)
		}
	}

	u, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// ForceLogout advances the target user's invalidation watermark so every
// session token issued before this instant fails its next check.  The
// client holding such a token discovers the logout on its next liveness
// poll or protected request; the server is never in contact with it.
func (h *AdminHandler) ForceLogout(c echo.Context) error {
	actorID, _ := c.Get("user_id").(string)

	var req forceLogoutReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	if req.UserID == actorID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Cannot force logout your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Invalidate(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "force logout failed"})
	}
	h.publish(ctx, queue.EventForceLogout, req.UserID, actorID)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// publish emits a security event; failures are already logged by the
// publisher and never surface to the admin.
func (h *AdminHandler) publish(ctx context.Context, kind, userID, actorID string) {
	_ = h.Events.Publish(ctx, queue.SecurityEvent{
		Kind:       kind,
		UserID:     userID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
