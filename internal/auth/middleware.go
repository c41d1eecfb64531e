package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/response"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// Required rejects requests without a valid token. The token comes from the
// Authorization header or, for websocket upgrades, the token query parameter.
func Required(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.UnauthorizedError(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := ParseToken(tokenString, secret)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token expired"
			}
			response.UnauthorizedError(c, msg)
			c.Abort()
			return
		}

		caller, err := claims.Caller()
		if err != nil {
			response.UnauthorizedError(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, caller.UserID)
		c.Set(ContextUserRole, caller.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// CallerFrom returns the identity stored by Required
func CallerFrom(c *gin.Context) (user.Caller, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return user.Caller{}, false
	}
	role, ok := c.Get(ContextUserRole)
	if !ok {
		return user.Caller{}, false
	}
	uid, ok := id.(uuid.UUID)
	if !ok {
		return user.Caller{}, false
	}
	r, ok := role.(user.Role)
	if !ok {
		return user.Caller{}, false
	}
	return user.Caller{UserID: uid, Role: r}, true
}

// RequireRoles lets only the listed roles through. It must run after Required.
func RequireRoles(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			response.UnauthorizedError(c, "Authentication required")
			c.Abort()
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		response.ForbiddenError(c, "Insufficient permissions")
		c.Abort()
	}
}
