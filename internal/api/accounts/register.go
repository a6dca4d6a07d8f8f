// register.go implements organization self-registration. A successful
// registration creates the PENDING organization, the founding user account,
// and the ngo_admin membership binding the two. The organization stays
// unusable until a platform admin approves it.
package accounts

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/auth"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// RegistrationHandlers handles organization self-registration
type RegistrationHandlers struct {
	userRepo *repositories.UserRepository
	orgRepo  *repositories.OrganizationRepository
}

// NewRegistrationHandlers creates a new RegistrationHandlers instance
func NewRegistrationHandlers(db *sql.DB) *RegistrationHandlers {
	return &RegistrationHandlers{
		userRepo: repositories.NewUserRepository(db),
		orgRepo:  repositories.NewOrganizationRepository(db),
	}
}

// RegisterRequest is the self-registration payload
type RegisterRequest struct {
	Organization struct {
		Name               string  `json:"name" binding:"required"`
		Type               *string `json:"type"`
		Email              *string `json:"email"`
		Phone              *string `json:"phone"`
		Address            *string `json:"address"`
		Website            *string `json:"website"`
		RegistrationNumber *string `json:"registration_number"`
		TaxID              *string `json:"tax_id"`
	} `json:"organization" binding:"required"`
	Admin struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	} `json:"admin" binding:"required"`
}

// @Summary      Register organization
// @Description  Self-registers a new organization in PENDING status together with its founding ngo_admin account.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "organization, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      409  {object}  map[string]interface{}  "Email or organization name already registered"
// @Router       /api/v1/auth/register [post]
// RegisterHandler creates a PENDING organization with its founding admin
// POST /api/v1/auth/register
func (h *RegistrationHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		ctx := c.Request.Context()

		existing, err := h.userRepo.GetByEmail(ctx, req.Admin.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}

		existingOrg, err := h.orgRepo.GetByName(ctx, req.Organization.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}
		if existingOrg != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Organization name is already registered"})
			return
		}

		hash, err := auth.HashPassword(req.Admin.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}

		user := &models.User{
			Email:        req.Admin.Email,
			Name:         req.Admin.Name,
			PasswordHash: hash,
		}
		if err := h.userRepo.Create(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}

		org := &models.Organization{
			Name:               req.Organization.Name,
			Type:               req.Organization.Type,
			Email:              req.Organization.Email,
			Phone:              req.Organization.Phone,
			Address:            req.Organization.Address,
			Website:            req.Organization.Website,
			RegistrationNumber: req.Organization.RegistrationNumber,
			TaxID:              req.Organization.TaxID,
		}
		if err := h.orgRepo.Create(ctx, org); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}

		membership := &models.Membership{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           models.RoleNGOAdmin,
			IsActive:       true,
		}
		if err := h.orgRepo.AddMember(ctx, membership); err != nil {
			// The org row exists without an admin at this point; it stays
			// PENDING and is cleaned up by the platform admin on review.
			slog.Error("failed to create founding membership", "error", err, "organization_id", org.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}

		slog.Info("organization registered", "organization_id", org.ID, "name", org.Name)

		c.JSON(http.StatusCreated, gin.H{
			"organization": org,
			"user":         userResponse(user),
			"message":      "Registration received. The organization is pending approval.",
		})
	}
}
