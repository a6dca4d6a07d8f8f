// Package programs implements the program API: CRUD, the projects a program
// groups, and the training-progress aggregation.
package programs

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// ProgramHandlers handles program API endpoints
type ProgramHandlers struct {
	programRepo *repositories.ProgramRepository
	sqlxDB      *sqlx.DB
}

// NewProgramHandlers creates a new ProgramHandlers instance
func NewProgramHandlers(db *sql.DB, sqlxDB *sqlx.DB) *ProgramHandlers {
	return &ProgramHandlers{
		programRepo: repositories.NewProgramRepository(db),
		sqlxDB:      sqlxDB,
	}
}

func parsePagination(c *gin.Context) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage, (page - 1) * perPage
}

// ProgramRequest is the create/update payload for a program
type ProgramRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// @Summary      List programs
// @Tags         Programs
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "programs, pagination"
// @Router       /api/v1/programs [get]
// ListProgramsHandler lists the organization's programs
// GET /api/v1/programs
func (h *ProgramHandlers) ListProgramsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		page, perPage, offset := parsePagination(c)

		programs, err := h.programRepo.List(c.Request.Context(), orgID, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list programs"})
			return
		}

		total, err := h.programRepo.Count(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count programs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"programs": programs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Create program
// @Tags         Programs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "program"
// @Router       /api/v1/programs [post]
// CreateProgramHandler creates a program
// POST /api/v1/programs
func (h *ProgramHandlers) CreateProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ProgramRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		program := &models.Program{
			OrganizationID: orgID,
			Name:           req.Name,
			Description:    req.Description,
		}
		if err := h.programRepo.Create(c.Request.Context(), program); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create program"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"program": program})
	}
}

// @Summary      Get program
// @Tags         Programs
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "program"
// @Failure      404  {object}  map[string]interface{}  "Program not found"
// @Router       /api/v1/programs/{id} [get]
// GetProgramHandler retrieves a program
// GET /api/v1/programs/:id
func (h *ProgramHandlers) GetProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		program, err := h.programRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve program"})
			return
		}
		if program == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"program": program})
	}
}

// @Summary      Update program
// @Tags         Programs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "program"
// @Failure      404  {object}  map[string]interface{}  "Program not found"
// @Router       /api/v1/programs/{id} [put]
// UpdateProgramHandler updates a program
// PUT /api/v1/programs/:id
func (h *ProgramHandlers) UpdateProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req ProgramRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		program, err := h.programRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve program"})
			return
		}
		if program == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
			return
		}

		program.Name = req.Name
		program.Description = req.Description

		if err := h.programRepo.Update(c.Request.Context(), program); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update program"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"program": program})
	}
}

// @Summary      Delete program
// @Tags         Programs
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/programs/{id} [delete]
// DeleteProgramHandler deletes a program. Project links are removed; the
// projects themselves stay.
// DELETE /api/v1/programs/:id
func (h *ProgramHandlers) DeleteProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.programRepo.Delete(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete program"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Program deleted"})
	}
}

// @Summary      List program projects
// @Tags         Programs
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "projects"
// @Failure      404  {object}  map[string]interface{}  "Program not found"
// @Router       /api/v1/programs/{id}/projects [get]
// ListProjectsHandler lists the projects linked to a program
// GET /api/v1/programs/:id/projects
func (h *ProgramHandlers) ListProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		program, err := h.programRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve program"})
			return
		}
		if program == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
			return
		}

		projects, err := h.programRepo.ListProjects(c.Request.Context(), program.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"projects": projects})
	}
}
