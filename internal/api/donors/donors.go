// Package donors implements the donor catalog API and the per-donor funding
// summary.
package donors

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// DonorHandlers handles donor endpoints
type DonorHandlers struct {
	donorRepo *repositories.DonorRepository
	sqlxDB    *sqlx.DB
}

// NewDonorHandlers creates a new DonorHandlers instance. sqlxDB wraps the same
// connection pool and serves the summary aggregation.
func NewDonorHandlers(db *sql.DB, sqlxDB *sqlx.DB) *DonorHandlers {
	return &DonorHandlers{
		donorRepo: repositories.NewDonorRepository(db),
		sqlxDB:    sqlxDB,
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

// DonorRequest is the create/update payload for a donor
type DonorRequest struct {
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Phone         *string `json:"phone"`
}

// @Summary      List donors
// @Tags         Donors
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "donors, pagination"
// @Router       /api/v1/donors [get]
// ListDonorsHandler lists the organization's donors
// GET /api/v1/donors
func (h *DonorHandlers) ListDonorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		page, perPage, offset := parsePagination(c)

		donors, err := h.donorRepo.List(c.Request.Context(), orgID, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list donors"})
			return
		}

		total, err := h.donorRepo.Count(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list donors"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"donors":     donors,
			"pagination": gin.H{"page": page, "per_page": perPage, "total": total},
		})
	}
}

// @Summary      Create donor
// @Tags         Donors
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "donor"
// @Router       /api/v1/donors [post]
// CreateDonorHandler creates a donor
// POST /api/v1/donors
func (h *DonorHandlers) CreateDonorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req DonorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		donor := &models.Donor{
			OrganizationID: orgID,
			Name:           req.Name,
			ContactPerson:  req.ContactPerson,
			Email:          req.Email,
			Phone:          req.Phone,
		}
		if err := h.donorRepo.Create(c.Request.Context(), donor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create donor"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"donor": donor})
	}
}

// ensureDonor loads the donor or writes the error response and returns nil
func (h *DonorHandlers) ensureDonor(c *gin.Context) *models.Donor {
	orgID := c.GetString("organization_id")

	donor, err := h.donorRepo.GetByID(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve donor"})
		return nil
	}
	if donor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donor not found"})
		return nil
	}
	return donor
}

// @Summary      Get donor
// @Tags         Donors
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "donor"
// @Failure      404  {object}  map[string]interface{}  "Donor not found"
// @Router       /api/v1/donors/{id} [get]
// GetDonorHandler retrieves a donor
// GET /api/v1/donors/:id
func (h *DonorHandlers) GetDonorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		donor := h.ensureDonor(c)
		if donor == nil {
			return
		}

		c.JSON(http.StatusOK, gin.H{"donor": donor})
	}
}

// @Summary      Update donor
// @Tags         Donors
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "donor"
// @Failure      404  {object}  map[string]interface{}  "Donor not found"
// @Router       /api/v1/donors/{id} [put]
// UpdateDonorHandler updates a donor
// PUT /api/v1/donors/:id
func (h *DonorHandlers) UpdateDonorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DonorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		donor := h.ensureDonor(c)
		if donor == nil {
			return
		}

		donor.Name = req.Name
		donor.ContactPerson = req.ContactPerson
		donor.Email = req.Email
		donor.Phone = req.Phone

		if err := h.donorRepo.Update(c.Request.Context(), donor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update donor"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"donor": donor})
	}
}

// @Summary      Delete donor
// @Tags         Donors
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/donors/{id} [delete]
// DeleteDonorHandler deletes a donor and its project links
// DELETE /api/v1/donors/:id
func (h *DonorHandlers) DeleteDonorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.donorRepo.Delete(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete donor"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Donor deleted"})
	}
}

// DonorSummary aggregates a donor's footprint across the organization
type DonorSummary struct {
	DonorID        string  `json:"donor_id"`
	FundedProjects int64   `json:"funded_projects"`
	TotalCommitted float64 `json:"total_committed"`
	Programs       int64   `json:"programs"`
	Districts      int64   `json:"districts"`
}

// @Summary      Donor funding summary
// @Tags         Donors
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  DonorSummary
// @Failure      404  {object}  map[string]interface{}  "Donor not found"
// @Router       /api/v1/donors/{id}/summary [get]
// GetSummaryHandler aggregates the donor's funded projects, total committed
// amount, and the distinct programs and districts those projects reach. One
// round trip.
// GET /api/v1/donors/:id/summary
func (h *DonorHandlers) GetSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		donor := h.ensureDonor(c)
		if donor == nil {
			return
		}

		summary := DonorSummary{DonorID: donor.ID}

		query := `
			SELECT
				(SELECT COUNT(*)
					FROM project_donors pd
					JOIN projects p ON p.id = pd.project_id
					WHERE pd.donor_id = $1 AND p.organization_id = $2) AS funded_projects,
				(SELECT COALESCE(SUM(pd.amount), 0)
					FROM project_donors pd
					JOIN projects p ON p.id = pd.project_id
					WHERE pd.donor_id = $1 AND p.organization_id = $2) AS total_committed,
				(SELECT COUNT(DISTINCT pp.program_id)
					FROM project_programs pp
					JOIN project_donors pd ON pd.project_id = pp.project_id
					JOIN projects p ON p.id = pp.project_id
					WHERE pd.donor_id = $1 AND p.organization_id = $2) AS programs,
				(SELECT COUNT(DISTINCT d.id)
					FROM districts d
					JOIN project_donors pd ON pd.project_id = d.project_id
					WHERE pd.donor_id = $1 AND d.organization_id = $2) AS districts
		`

		err := h.sqlxDB.QueryRowContext(c.Request.Context(), query, donor.ID, orgID).Scan(
			&summary.FundedProjects,
			&summary.TotalCommitted,
			&summary.Programs,
			&summary.Districts,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load donor summary"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
