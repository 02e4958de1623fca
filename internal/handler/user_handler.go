package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orbita-academy/orbita-backend/internal/middleware"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/response"
	"github.com/orbita-academy/orbita-backend/internal/service"
	"github.com/orbita-academy/orbita-backend/internal/validator"
)

// UserHandler handles user registry management endpoints.
type UserHandler struct {
	access *service.AccessService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(access *service.AccessService) *UserHandler {
	return &UserHandler{access: access}
}

// ListUsers godoc
// GET /api/v1/admin/users?role=&page=&per_page=
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	role := model.Role(c.Query("role"))

	users, total, err := h.access.ListUsers(c.Request.Context(), role, page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRole)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	totalPages := (total + perPage - 1) / perPage

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// RegisterUser godoc
// POST /api/v1/admin/users
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req model.RegisterUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.access.Register(c.Request.Context(), &req)
	if err != nil {
		h.failMutation(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// UpdateUser godoc
// PUT /api/v1/admin/users/:id
// Wholesale replace. If the caller edited their own record, a refreshed
// credential rides back in the response so the client need not re-login.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.access.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.failMutation(c, err)
		return
	}

	h.respondWithReissue(c, user)
}

// UpdateUserPermissions godoc
// PUT /api/v1/admin/users/:id/permissions
func (h *UserHandler) UpdateUserPermissions(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req model.UpdatePermissionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.access.UpdatePermissions(c.Request.Context(), id, req.Permissions)
	if err != nil {
		h.failMutation(c, err)
		return
	}

	h.respondWithReissue(c, user)
}

// SetUserActive godoc
// PUT /api/v1/admin/users/:id/active
func (h *UserHandler) SetUserActive(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req model.SetActiveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.access.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.failMutation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// respondWithReissue returns the mutated user, plus a fresh credential when
// the mutated user is the caller so permission/role changes are reflected in
// the token the client holds.
func (h *UserHandler) respondWithReissue(c *gin.Context, user *model.User) {
	payload := gin.H{"user": user}

	claims := middleware.GetClaims(c)
	if claims != nil && claims.UserID == user.ID && user.Active {
		token, err := h.access.IssueCredential(c.Request.Context(), user)
		if err == nil {
			payload["token"] = token
		}
	}

	response.Success(c, http.StatusOK, payload)
}

func (h *UserHandler) failMutation(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrUsernameTaken):
		response.Fail(c, http.StatusConflict, response.ErrUsernameTaken)
	case errors.Is(err, service.ErrInvalidRole):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRole)
	case errors.Is(err, service.ErrUnknownPermission):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownPermission)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
