package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbita-academy/orbita-backend/internal/middleware"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/response"
	"github.com/orbita-academy/orbita-backend/internal/service"
	"github.com/orbita-academy/orbita-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	access *service.AccessService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(access *service.AccessService) *AuthHandler {
	return &AuthHandler{access: access}
}

// Login godoc
// POST /api/v1/auth/login
// Resolves username/password (registry or bootstrap credentials) and returns
// a signed session credential with the user's effective permissions.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, token, err := h.access.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountInactive):
			response.Fail(c, http.StatusUnauthorized, response.ErrAccountInactive)
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{
		Token:       token,
		User:        *user,
		Permissions: user.Permissions,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Invalidates the caller's session. Calling it twice is harmless.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.access.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the authenticated user's record with its live permission set.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.access.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": user.Permissions,
		"is_admin":    user.Role.IsAdmin(),
		"is_staff":    user.Role.IsStaff(),
	})
}
