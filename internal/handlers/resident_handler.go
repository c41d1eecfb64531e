package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/response"
	"github.com/gravadigital/residencia-api/internal/services"
)

type ResidentHandler struct {
	residents *services.ResidentService
}

func NewResidentHandler(residents *services.ResidentService) *ResidentHandler {
	return &ResidentHandler{residents: residents}
}

// Create handles POST /api/residents
func (h *ResidentHandler) Create(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateResidentRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.residents.Create(c.Request.Context(), req, caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusCreated, "Resident profile created", created)
}

// List handles GET /api/residents
func (h *ResidentHandler) List(c *gin.Context) {
	list, err := h.residents.FindAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", list)
}

// Stats handles GET /api/residents/stats
func (h *ResidentHandler) Stats(c *gin.Context) {
	stats, err := h.residents.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", stats)
}

// Me handles GET /api/residents/me
func (h *ResidentHandler) Me(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	res, err := h.residents.FindByUser(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", res)
}

// Get handles GET /api/residents/:id
func (h *ResidentHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	res, err := h.residents.FindOne(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", res)
}

// Update handles PATCH /api/residents/:id
func (h *ResidentHandler) Update(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateResidentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.residents.Update(c.Request.Context(), id, req, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Resident profile updated", res)
}

// Delete handles DELETE /api/residents/:id
func (h *ResidentHandler) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.residents.Remove(c.Request.Context(), id, caller); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Resident profile deleted", nil)
}
