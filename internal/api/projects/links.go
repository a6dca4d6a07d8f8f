// links.go implements the project↔program and project↔donor link endpoints.
// Both sides of a link are checked against the caller's organization before
// the join row is touched.
package projects

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
)

// ensureProject loads the project or writes the error response and returns nil
func (h *ProjectHandlers) ensureProject(c *gin.Context) *models.Project {
	orgID := c.GetString("organization_id")

	project, err := h.projectRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return nil
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return nil
	}
	return project
}

// @Summary      List project programs
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "programs"
// @Router       /api/v1/projects/{id}/programs [get]
// ListProgramsHandler lists the programs a project is linked to
// GET /api/v1/projects/:id/programs
func (h *ProjectHandlers) ListProgramsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.ensureProject(c)
		if project == nil {
			return
		}

		programs, err := h.projectRepo.ListPrograms(c.Request.Context(), project.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list programs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"programs": programs})
	}
}

// @Summary      Link project to program
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Project or program not found"
// @Router       /api/v1/projects/{id}/programs/{programID} [post]
// AttachProgramHandler links a project to a program. Idempotent.
// POST /api/v1/projects/:id/programs/:programID
func (h *ProjectHandlers) AttachProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		project := h.ensureProject(c)
		if project == nil {
			return
		}

		program, err := h.programRepo.GetByID(c.Request.Context(), orgID, c.Param("programID"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve program"})
			return
		}
		if program == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
			return
		}

		if err := h.projectRepo.AttachProgram(c.Request.Context(), project.ID, program.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link program"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Program linked"})
	}
}

// @Summary      Unlink project from program
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/projects/{id}/programs/{programID} [delete]
// DetachProgramHandler unlinks a project from a program
// DELETE /api/v1/projects/:id/programs/:programID
func (h *ProjectHandlers) DetachProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.ensureProject(c)
		if project == nil {
			return
		}

		if err := h.projectRepo.DetachProgram(c.Request.Context(), project.ID, c.Param("programID")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlink program"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Program unlinked"})
	}
}

// DonorLinkRequest carries the committed amount for a donor link
type DonorLinkRequest struct {
	Amount float64 `json:"amount" binding:"gte=0"`
}

// @Summary      List project donors
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "donors"
// @Router       /api/v1/projects/{id}/donors [get]
// ListDonorsHandler lists the donors funding a project with their amounts
// GET /api/v1/projects/:id/donors
func (h *ProjectHandlers) ListDonorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.ensureProject(c)
		if project == nil {
			return
		}

		donors, err := h.projectRepo.ListDonors(c.Request.Context(), project.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list donors"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"donors": donors})
	}
}

// @Summary      Link donor to project
// @Tags         Projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Project or donor not found"
// @Router       /api/v1/projects/{id}/donors/{donorID} [post]
// AttachDonorHandler links a donor to a project with a funded amount.
// Re-linking updates the amount.
// POST /api/v1/projects/:id/donors/:donorID
func (h *ProjectHandlers) AttachDonorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req DonorLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		project := h.ensureProject(c)
		if project == nil {
			return
		}

		donor, err := h.donorRepo.GetByID(c.Request.Context(), orgID, c.Param("donorID"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve donor"})
			return
		}
		if donor == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donor not found"})
			return
		}

		link := &models.ProjectDonor{
			ProjectID: project.ID,
			DonorID:   donor.ID,
			Amount:    req.Amount,
		}
		if err := h.projectRepo.AttachDonor(c.Request.Context(), link); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link donor"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Donor linked"})
	}
}

// @Summary      Unlink donor from project
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/projects/{id}/donors/{donorID} [delete]
// DetachDonorHandler unlinks a donor from a project
// DELETE /api/v1/projects/:id/donors/:donorID
func (h *ProjectHandlers) DetachDonorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.ensureProject(c)
		if project == nil {
			return
		}

		if err := h.projectRepo.DetachDonor(c.Request.Context(), project.ID, c.Param("donorID")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlink donor"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Donor unlinked"})
	}
}
