package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/response"
	"github.com/gravadigital/residencia-api/internal/services"
)

type ComplaintHandler struct {
	complaints *services.ComplaintService
}

func NewComplaintHandler(complaints *services.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

// Create handles POST /api/complaints
func (h *ComplaintHandler) Create(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.complaints.Create(c.Request.Context(), req, caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusCreated, "Complaint created", created)
}

// parseFilter reads status, priority, category and building from the query
func parseFilter(c *gin.Context) (complaint.Filter, string) {
	var f complaint.Filter
	if v := c.Query("status"); v != "" {
		s := complaint.Status(v)
		if !s.Valid() {
			return f, "Invalid status filter"
		}
		f.Status = &s
	}
	if v := c.Query("priority"); v != "" {
		p := complaint.Priority(v)
		if !p.Valid() {
			return f, "Invalid priority filter"
		}
		f.Priority = &p
	}
	if v := c.Query("category"); v != "" {
		cat := complaint.Category(v)
		if !cat.Valid() {
			return f, "Invalid category filter"
		}
		f.Category = &cat
	}
	if v := c.Query("building"); v != "" {
		f.Building = &v
	}
	return f, ""
}

// List handles GET /api/complaints
func (h *ComplaintHandler) List(c *gin.Context) {
	filter, problem := parseFilter(c)
	if problem != "" {
		response.BadRequestError(c, problem)
		return
	}

	list, err := h.complaints.FindAll(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", list)
}

// Mine handles GET /api/complaints/my-complaints
func (h *ComplaintHandler) Mine(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	list, err := h.complaints.FindByUser(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", list)
}

// Stats handles GET /api/complaints/stats
func (h *ComplaintHandler) Stats(c *gin.Context) {
	stats, err := h.complaints.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", stats)
}

// Get handles GET /api/complaints/:id
func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	found, err := h.complaints.FindOne(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", found)
}

// Update handles PATCH /api/complaints/:id
func (h *ComplaintHandler) Update(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		response.FromError(c, err)
		return
	}

	updated, err := h.complaints.Update(c.Request.Context(), id, patch, caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Complaint updated", updated)
}

// Delete handles DELETE /api/complaints/:id
func (h *ComplaintHandler) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.complaints.Remove(c.Request.Context(), id, caller); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Complaint deleted", nil)
}

type addCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddComment handles POST /api/complaints/:id/comments
func (h *ComplaintHandler) AddComment(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req addCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.complaints.AddComment(c.Request.Context(), id, req.Content, caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusCreated, "Comment added", comment)
}
