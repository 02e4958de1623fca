package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbita-academy/orbita-backend/internal/response"
	"github.com/orbita-academy/orbita-backend/internal/service"
)

// CheckSessionRevocation validates the credential's JTI against the session
// store. A token whose session was cleared — logout, deactivation, or a
// newer login — is rejected even though its signature is still valid.
func CheckSessionRevocation(access *service.AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := access.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
