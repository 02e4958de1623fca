package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/response"
)

// RoleHandler serves the static role and permission catalogs. Both are
// compile-time constants, so these endpoints have no service dependency.
type RoleHandler struct{}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler() *RoleHandler {
	return &RoleHandler{}
}

// ListRoles godoc
// GET /api/v1/admin/roles
// Returns every role with its default permission set and staff flag.
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles := make([]gin.H, 0, len(model.AllRoles))
	for _, role := range model.AllRoles {
		roles = append(roles, gin.H{
			"name":                role,
			"default_permissions": model.DefaultPermissionsFor(role),
			"is_staff":            role.IsStaff(),
		})
	}

	response.Success(c, http.StatusOK, gin.H{"roles": roles})
}

// ListPermissions godoc
// GET /api/v1/admin/permissions
// Returns the closed permission catalog.
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"permissions": model.PermissionStrings(),
	})
}
