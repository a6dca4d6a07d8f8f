// Package areas implements the geographic intervention area API: a five-level
// hierarchy of states, districts, blocks, gram panchayats, and villages. Each
// level is organization-scoped and a child is only created under a parent that
// belongs to the same organization.
package areas

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// AreaHandlers handles the geographic hierarchy endpoints
type AreaHandlers struct {
	areaRepo *repositories.AreaRepository
}

// NewAreaHandlers creates a new AreaHandlers instance
func NewAreaHandlers(db *sql.DB) *AreaHandlers {
	return &AreaHandlers{areaRepo: repositories.NewAreaRepository(db)}
}

// AreaRequest is the create payload for any level of the hierarchy
type AreaRequest struct {
	Name      string  `json:"name" binding:"required"`
	ProjectID *string `json:"project_id"`
}

// --- States ---

// @Summary      List states
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "states"
// @Router       /api/v1/states [get]
// ListStatesHandler lists the organization's states
// GET /api/v1/states
func (h *AreaHandlers) ListStatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		states, err := h.areaRepo.ListStates(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list states"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"states": states})
	}
}

// @Summary      Create state
// @Tags         Areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "state"
// @Router       /api/v1/states [post]
// CreateStateHandler creates a state
// POST /api/v1/states
func (h *AreaHandlers) CreateStateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req AreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		state := &models.State{
			OrganizationID: orgID,
			ProjectID:      req.ProjectID,
			Name:           req.Name,
		}
		if err := h.areaRepo.CreateState(c.Request.Context(), state); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create state"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"state": state})
	}
}

// @Summary      Delete state
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/states/{id} [delete]
// DeleteStateHandler deletes a state and all areas beneath it
// DELETE /api/v1/states/:id
func (h *AreaHandlers) DeleteStateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.areaRepo.DeleteState(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete state"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "State deleted"})
	}
}

// --- Districts ---

// @Summary      List districts
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "districts"
// @Failure      404  {object}  map[string]interface{}  "State not found"
// @Router       /api/v1/states/{id}/districts [get]
// ListDistrictsHandler lists the districts under a state
// GET /api/v1/states/:id/districts
func (h *AreaHandlers) ListDistrictsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		state, err := h.areaRepo.GetStateByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve state"})
			return
		}
		if state == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "State not found"})
			return
		}

		districts, err := h.areaRepo.ListDistricts(c.Request.Context(), orgID, state.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list districts"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"districts": districts})
	}
}

// @Summary      Create district
// @Tags         Areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "district"
// @Failure      404  {object}  map[string]interface{}  "State not found"
// @Router       /api/v1/states/{id}/districts [post]
// CreateDistrictHandler creates a district under a state
// POST /api/v1/states/:id/districts
func (h *AreaHandlers) CreateDistrictHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req AreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		state, err := h.areaRepo.GetStateByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve state"})
			return
		}
		if state == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "State not found"})
			return
		}

		district := &models.District{
			OrganizationID: orgID,
			StateID:        state.ID,
			ProjectID:      req.ProjectID,
			Name:           req.Name,
		}
		if err := h.areaRepo.CreateDistrict(c.Request.Context(), district); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create district"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"district": district})
	}
}

// @Summary      Delete district
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/districts/{id} [delete]
// DeleteDistrictHandler deletes a district and all areas beneath it
// DELETE /api/v1/districts/:id
func (h *AreaHandlers) DeleteDistrictHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.areaRepo.DeleteDistrict(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete district"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "District deleted"})
	}
}

// --- Blocks ---

// @Summary      List blocks
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "blocks"
// @Failure      404  {object}  map[string]interface{}  "District not found"
// @Router       /api/v1/districts/{id}/blocks [get]
// ListBlocksHandler lists the blocks under a district
// GET /api/v1/districts/:id/blocks
func (h *AreaHandlers) ListBlocksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		district, err := h.areaRepo.GetDistrictByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve district"})
			return
		}
		if district == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "District not found"})
			return
		}

		blocks, err := h.areaRepo.ListBlocks(c.Request.Context(), orgID, district.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list blocks"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"blocks": blocks})
	}
}

// @Summary      Create block
// @Tags         Areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "block"
// @Failure      404  {object}  map[string]interface{}  "District not found"
// @Router       /api/v1/districts/{id}/blocks [post]
// CreateBlockHandler creates a block under a district
// POST /api/v1/districts/:id/blocks
func (h *AreaHandlers) CreateBlockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req AreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		district, err := h.areaRepo.GetDistrictByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve district"})
			return
		}
		if district == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "District not found"})
			return
		}

		block := &models.Block{
			OrganizationID: orgID,
			DistrictID:     district.ID,
			ProjectID:      req.ProjectID,
			Name:           req.Name,
		}
		if err := h.areaRepo.CreateBlock(c.Request.Context(), block); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create block"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"block": block})
	}
}

// @Summary      Delete block
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/blocks/{id} [delete]
// DeleteBlockHandler deletes a block and all areas beneath it
// DELETE /api/v1/blocks/:id
func (h *AreaHandlers) DeleteBlockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.areaRepo.DeleteBlock(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete block"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Block deleted"})
	}
}

// --- Gram panchayats ---

// @Summary      List gram panchayats
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "gram_panchayats"
// @Failure      404  {object}  map[string]interface{}  "Block not found"
// @Router       /api/v1/blocks/{id}/gram-panchayats [get]
// ListGramPanchayatsHandler lists the gram panchayats under a block
// GET /api/v1/blocks/:id/gram-panchayats
func (h *AreaHandlers) ListGramPanchayatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		block, err := h.areaRepo.GetBlockByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve block"})
			return
		}
		if block == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Block not found"})
			return
		}

		gps, err := h.areaRepo.ListGramPanchayats(c.Request.Context(), orgID, block.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list gram panchayats"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"gram_panchayats": gps})
	}
}

// @Summary      Create gram panchayat
// @Tags         Areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "gram_panchayat"
// @Failure      404  {object}  map[string]interface{}  "Block not found"
// @Router       /api/v1/blocks/{id}/gram-panchayats [post]
// CreateGramPanchayatHandler creates a gram panchayat under a block
// POST /api/v1/blocks/:id/gram-panchayats
func (h *AreaHandlers) CreateGramPanchayatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req AreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		block, err := h.areaRepo.GetBlockByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve block"})
			return
		}
		if block == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Block not found"})
			return
		}

		gp := &models.GramPanchayat{
			OrganizationID: orgID,
			BlockID:        block.ID,
			ProjectID:      req.ProjectID,
			Name:           req.Name,
		}
		if err := h.areaRepo.CreateGramPanchayat(c.Request.Context(), gp); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create gram panchayat"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"gram_panchayat": gp})
	}
}

// @Summary      Delete gram panchayat
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/gram-panchayats/{id} [delete]
// DeleteGramPanchayatHandler deletes a gram panchayat and its villages
// DELETE /api/v1/gram-panchayats/:id
func (h *AreaHandlers) DeleteGramPanchayatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.areaRepo.DeleteGramPanchayat(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete gram panchayat"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Gram panchayat deleted"})
	}
}

// --- Villages ---

// @Summary      List villages
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "villages"
// @Failure      404  {object}  map[string]interface{}  "Gram panchayat not found"
// @Router       /api/v1/gram-panchayats/{id}/villages [get]
// ListVillagesHandler lists the villages under a gram panchayat
// GET /api/v1/gram-panchayats/:id/villages
func (h *AreaHandlers) ListVillagesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		gp, err := h.areaRepo.GetGramPanchayatByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve gram panchayat"})
			return
		}
		if gp == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Gram panchayat not found"})
			return
		}

		villages, err := h.areaRepo.ListVillages(c.Request.Context(), orgID, gp.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list villages"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"villages": villages})
	}
}

// @Summary      Create village
// @Tags         Areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "village"
// @Failure      404  {object}  map[string]interface{}  "Gram panchayat not found"
// @Router       /api/v1/gram-panchayats/{id}/villages [post]
// CreateVillageHandler creates a village under a gram panchayat
// POST /api/v1/gram-panchayats/:id/villages
func (h *AreaHandlers) CreateVillageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req AreaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		gp, err := h.areaRepo.GetGramPanchayatByID(c.Request.Context(), orgID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve gram panchayat"})
			return
		}
		if gp == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Gram panchayat not found"})
			return
		}

		village := &models.Village{
			OrganizationID:  orgID,
			GramPanchayatID: gp.ID,
			ProjectID:       req.ProjectID,
			Name:            req.Name,
		}
		if err := h.areaRepo.CreateVillage(c.Request.Context(), village); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create village"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"village": village})
	}
}

// @Summary      Delete village
// @Tags         Areas
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Router       /api/v1/villages/{id} [delete]
// DeleteVillageHandler deletes a village
// DELETE /api/v1/villages/:id
func (h *AreaHandlers) DeleteVillageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		if err := h.areaRepo.DeleteVillage(c.Request.Context(), orgID, c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete village"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Village deleted"})
	}
}
