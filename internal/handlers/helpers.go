package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/auth"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/response"
)

// callerOrAbort returns the authenticated caller or writes a 401
func callerOrAbort(c *gin.Context) (user.Caller, bool) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		response.UnauthorizedError(c, "Authentication required")
		return user.Caller{}, false
	}
	return caller, true
}

// uuidParam parses a path parameter or writes a 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequestError(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body or writes a 400
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequestError(c, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}
