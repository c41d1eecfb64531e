package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/response"
	"github.com/gravadigital/residencia-api/internal/services"
)

type AttachmentHandler struct {
	complaints  *services.ComplaintService
	maxFileSize int64
	log         *log.Logger
}

func NewAttachmentHandler(complaints *services.ComplaintService, maxFileSize int64) *AttachmentHandler {
	return &AttachmentHandler{
		complaints:  complaints,
		maxFileSize: maxFileSize,
		log:         logger.Handler("attachment"),
	}
}

// Upload handles POST /api/complaints/:id/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	complaintID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if h.maxFileSize > 0 {
		// leave room for the multipart envelope around the file
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+1<<20)
	}

	// Get the file from the form
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(c)
			return
		}
		response.BadRequestError(c, "No file provided")
		return
	}
	defer file.Close()

	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		h.tooLarge(c)
		return
	}

	a, err := h.complaints.UploadAttachment(c.Request.Context(), complaintID, services.FileUpload{
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   file,
	}, caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "File uploaded successfully", a)
}

// List handles GET /api/complaints/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	complaintID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	list, err := h.complaints.ListAttachments(c.Request.Context(), complaintID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", list)
}

// Download handles GET /api/complaints/:id/attachments/:attachmentId/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	complaintID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := uuidParam(c, "attachmentId")
	if !ok {
		return
	}

	a, body, err := h.complaints.OpenAttachment(c.Request.Context(), complaintID, attachmentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName})
	if disposition == "" {
		disposition = "attachment"
	}

	h.log.Debug("streaming attachment", "attachment_id", a.ID, "size", a.FileSize)
	c.DataFromReader(http.StatusOK, a.FileSize, a.MimeType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Delete handles DELETE /api/complaints/:id/attachments/:attachmentId
func (h *AttachmentHandler) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	complaintID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := uuidParam(c, "attachmentId")
	if !ok {
		return
	}

	if err := h.complaints.DeleteAttachment(c.Request.Context(), complaintID, attachmentID, caller); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Attachment deleted", nil)
}

func (h *AttachmentHandler) tooLarge(c *gin.Context) {
	response.ErrorResponseWithMessage(c, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File size exceeds %d bytes limit", h.maxFileSize))
}
