package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/guard"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// RoleHandler administers role assignments and exposes the audit trail.
type RoleHandler struct {
	service ports.RoleService
	audit   ports.AuditRepository
}

func NewRoleHandler(service ports.RoleService, audit ports.AuditRepository) *RoleHandler {
	return &RoleHandler{service: service, audit: audit}
}

type grantRoleRequest struct {
	Role string `json:"role" validate:"required,rolename"`
}

type checkRolesResponse struct {
	VolunteerID string   `json:"volunteer_id"`
	Roles       []string `json:"roles"`
	Mode        string   `json:"mode"`
	Granted     bool     `json:"granted"`
}

// Grant handles POST /api/admin/volunteers/:id/roles.
//
// @Summary      Grant a role
// @Tags         roles
// @Accept       json
// @Security     SessionCookie
// @Param        id    path  string            true  "Volunteer ID"
// @Param        body  body  grantRoleRequest  true  "Role to grant"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/admin/volunteers/{id}/roles [post]
func (h *RoleHandler) Grant(c echo.Context) error {
	var req grantRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.Grant(c.Request().Context(), c.Param("id"), req.Role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Revoke handles DELETE /api/admin/volunteers/:id/roles/:role.
//
// @Summary      Revoke a role
// @Tags         roles
// @Security     SessionCookie
// @Param        id    path  string  true  "Volunteer ID"
// @Param        role  path  string  true  "Role name"
// @Success      204
// @Failure      403   {object}  errorResponse
// @Router       /api/admin/volunteers/{id}/roles/{role} [delete]
func (h *RoleHandler) Revoke(c echo.Context) error {
	if err := h.service.Revoke(c.Request().Context(), c.Param("id"), c.Param("role")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Check handles GET /api/admin/volunteers/:id/roles/check?role=a&role=b&mode=any|all.
//
// @Summary      Check a volunteer's roles
// @Tags         roles
// @Produce      json
// @Security     SessionCookie
// @Param        id    path   string    true   "Volunteer ID"
// @Param        role  query  []string  false  "Roles to check"  collectionFormat(multi)
// @Param        mode  query  string    false  "any or all"  Enums(any, all)
// @Success      200   {object}  checkRolesResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/admin/volunteers/{id}/roles/check [get]
func (h *RoleHandler) Check(c echo.Context) error {
	roles := c.QueryParams()["role"]
	mode := c.QueryParam("mode")
	switch mode {
	case "":
		mode = guard.ModeAny.String()
	case guard.ModeAny.String(), guard.ModeAll.String():
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be one of: any all")
	}

	granted, err := h.service.Check(c.Request().Context(), c.Param("id"), roles, mode == guard.ModeAll.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, checkRolesResponse{
		VolunteerID: c.Param("id"),
		Roles:       roles,
		Mode:        mode,
		Granted:     granted,
	})
}

// Audit handles GET /api/admin/volunteers/:id/audit?limit=n.
//
// @Summary      Audit history of a volunteer
// @Tags         roles
// @Produce      json
// @Security     SessionCookie
// @Param        id     path   string  true   "Volunteer ID"
// @Param        limit  query  int     false  "Maximum entries (default 50, max 500)"
// @Success      200    {object}  map[string][]domain.AuditEntry
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /api/admin/volunteers/{id}/audit [get]
func (h *RoleHandler) Audit(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := authcache.Require(ctx, guard.All(domain.RoleAdmin)); err != nil {
		return err
	}

	limit := int64(defaultAuditLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.audit.List(ctx, c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}
