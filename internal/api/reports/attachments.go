// attachments.go implements report evidence file endpoints. Files live in the
// configured storage backend; the database keeps the storage key, checksum,
// and size.
package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// maxAttachmentSize caps a single evidence file at 25 MiB
const maxAttachmentSize = 25 << 20

// @Summary      Upload attachment
// @Tags         Reports
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Evidence file"
// @Success      201  {object}  map[string]interface{}  "attachment"
// @Failure      404  {object}  map[string]interface{}  "Report not found"
// @Router       /api/v1/reports/{id}/attachments [post]
// UploadAttachmentHandler stores an evidence file against a report
// POST /api/v1/reports/:id/attachments
func (h *ReportHandlers) UploadAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		userID := c.GetString("user_id")

		report := h.ensureReport(c)
		if report == nil {
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}
		defer file.Close()

		if header.Size > maxAttachmentSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the 25 MiB attachment limit"})
			return
		}

		fileName := filepath.Base(header.Filename)
		key := fmt.Sprintf("%s/reports/%s/%s-%s", orgID, report.ID, uuid.New().String(), fileName)

		result, err := h.store.Upload(c.Request.Context(), key, file, header.Size)
		if err != nil {
			slog.Error("attachment upload failed",
				"report_id", report.ID,
				"backend", h.backend,
				"error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
			return
		}

		var contentType *string
		if ct := header.Header.Get("Content-Type"); ct != "" {
			contentType = &ct
		}

		attachment := &models.ReportAttachment{
			ReportID:    report.ID,
			FileName:    fileName,
			StorageKey:  result.Path,
			Checksum:    result.Checksum,
			SizeBytes:   result.Size,
			ContentType: contentType,
			UploadedBy:  userID,
		}
		if err := h.reportRepo.CreateAttachment(c.Request.Context(), attachment); err != nil {
			// The blob is orphaned if this cleanup fails; the error log
			// carries the key so it can be removed by hand.
			if delErr := h.store.Delete(c.Request.Context(), result.Path); delErr != nil {
				slog.Error("failed to clean up orphaned attachment blob",
					"storage_key", result.Path,
					"error", delErr)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create attachment"})
			return
		}

		telemetry.AttachmentUploadsTotal.WithLabelValues(h.backend).Inc()

		c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
	}
}

// @Summary      List attachments
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "attachments"
// @Failure      404  {object}  map[string]interface{}  "Report not found"
// @Router       /api/v1/reports/{id}/attachments [get]
// ListAttachmentsHandler lists a report's attachments
// GET /api/v1/reports/:id/attachments
func (h *ReportHandlers) ListAttachmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := h.ensureReport(c)
		if report == nil {
			return
		}

		attachments, err := h.reportRepo.ListAttachments(c.Request.Context(), report.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list attachments"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"attachments": attachments})
	}
}

// ensureAttachment loads the attachment under the report in the path or
// writes the error response and returns nil
func (h *ReportHandlers) ensureAttachment(c *gin.Context) *models.ReportAttachment {
	report := h.ensureReport(c)
	if report == nil {
		return nil
	}

	attachment, err := h.reportRepo.GetAttachmentByID(c.Request.Context(), report.ID, c.Param("attachment_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachment"})
		return nil
	}
	if attachment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		return nil
	}
	return attachment
}

// @Summary      Download attachment
// @Tags         Reports
// @Security     Bearer
// @Produce      octet-stream
// @Success      200  {file}  binary  "File content"
// @Failure      404  {object}  map[string]interface{}  "Attachment not found"
// @Router       /api/v1/reports/{id}/attachments/{attachment_id}/download [get]
// DownloadAttachmentHandler streams an attachment from the storage backend
// GET /api/v1/reports/:id/attachments/:attachment_id/download
func (h *ReportHandlers) DownloadAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		attachment := h.ensureAttachment(c)
		if attachment == nil {
			return
		}

		reader, err := h.store.Download(c.Request.Context(), attachment.StorageKey)
		if err != nil {
			slog.Error("attachment download failed",
				"storage_key", attachment.StorageKey,
				"backend", h.backend,
				"error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve file"})
			return
		}
		defer reader.Close()

		contentType := "application/octet-stream"
		if attachment.ContentType != nil {
			contentType = *attachment.ContentType
		}

		c.DataFromReader(http.StatusOK, attachment.SizeBytes, contentType, reader, map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", attachment.FileName),
		})
	}
}

// @Summary      Delete attachment
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Attachment not found"
// @Router       /api/v1/reports/{id}/attachments/{attachment_id} [delete]
// DeleteAttachmentHandler removes an attachment record and its stored blob
// DELETE /api/v1/reports/:id/attachments/:attachment_id
func (h *ReportHandlers) DeleteAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		attachment := h.ensureAttachment(c)
		if attachment == nil {
			return
		}

		if err := h.reportRepo.DeleteAttachment(c.Request.Context(), attachment.ReportID, attachment.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete attachment"})
			return
		}

		h.deleteBlob(c, attachment)

		c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted"})
	}
}

// deleteBlob removes a stored file best-effort. The record is already gone;
// a failure only leaks the blob, so it is logged and not surfaced.
func (h *ReportHandlers) deleteBlob(c *gin.Context, a *models.ReportAttachment) {
	if err := h.store.Delete(c.Request.Context(), a.StorageKey); err != nil {
		slog.Warn("failed to delete attachment blob",
			"storage_key", a.StorageKey,
			"backend", h.backend,
			"error", err)
	}
}
