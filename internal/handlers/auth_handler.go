package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/response"
	"github.com/gravadigital/residencia-api/internal/services"
)

// AuthHandler serves registration, login and the current account
type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusCreated, "User registered", result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Login successful", result)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	u, err := h.users.Me(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", u)
}

// UpdateUser handles PATCH /api/users/:id
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.UpdateUser(c.Request.Context(), id, req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "User updated", u)
}
