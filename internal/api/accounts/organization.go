// organization.go implements the tenant-facing organization profile and
// member management endpoints. The organization is always the caller's own,
// resolved by the RequireOrganization middleware.
package accounts

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/auth"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// OrganizationHandlers handles the caller's own organization
type OrganizationHandlers struct {
	userRepo *repositories.UserRepository
	orgRepo  *repositories.OrganizationRepository
}

// NewOrganizationHandlers creates a new OrganizationHandlers instance
func NewOrganizationHandlers(db *sql.DB) *OrganizationHandlers {
	return &OrganizationHandlers{
		userRepo: repositories.NewUserRepository(db),
		orgRepo:  repositories.NewOrganizationRepository(db),
	}
}

// @Summary      Get organization profile
// @Tags         Organization
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organization"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/organization [get]
// GetProfileHandler returns the caller's organization profile
// GET /api/v1/organization
func (h *OrganizationHandlers) GetProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		org, err := h.orgRepo.GetByID(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve organization"})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"organization": org})
	}
}

// UpdateProfileRequest is the organization profile update payload
type UpdateProfileRequest struct {
	Name               string  `json:"name" binding:"required"`
	Type               *string `json:"type"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	Address            *string `json:"address"`
	Website            *string `json:"website"`
	RegistrationNumber *string `json:"registration_number"`
	TaxID              *string `json:"tax_id"`
}

// @Summary      Update organization profile
// @Tags         Organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "organization"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Router       /api/v1/organization [put]
// UpdateProfileHandler updates the caller's organization profile
// PUT /api/v1/organization
func (h *OrganizationHandlers) UpdateProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		org, err := h.orgRepo.GetByID(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve organization"})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}

		org.Name = req.Name
		org.Type = req.Type
		org.Email = req.Email
		org.Phone = req.Phone
		org.Address = req.Address
		org.Website = req.Website
		org.RegistrationNumber = req.RegistrationNumber
		org.TaxID = req.TaxID

		if err := h.orgRepo.Update(c.Request.Context(), org); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update organization"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"organization": org})
	}
}

// @Summary      List members
// @Tags         Organization
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "members"
// @Router       /api/v1/organization/members [get]
// ListMembersHandler lists the organization's members with user details
// GET /api/v1/organization/members
func (h *OrganizationHandlers) ListMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		members, err := h.orgRepo.ListMembers(c.Request.Context(), orgID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// AddMemberRequest is the member invitation payload. When no account exists
// for the email, one is created with the supplied name and password.
type AddMemberRequest struct {
	Email       string              `json:"email" binding:"required,email"`
	Name        string              `json:"name"`
	Password    string              `json:"password"`
	Role        string              `json:"role" binding:"required"`
	Permissions []models.Permission `json:"permissions"`
}

// @Summary      Add member
// @Tags         Organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "membership"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body or role"
// @Failure      409  {object}  map[string]interface{}  "User is already a member"
// @Router       /api/v1/organization/members [post]
// AddMemberHandler adds a user to the organization
// POST /api/v1/organization/members
func (h *OrganizationHandlers) AddMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")

		var req AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.Role != models.RoleNGOAdmin && req.Role != models.RoleMember {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		if err := auth.ValidatePermissions(req.Permissions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()

		user, err := h.userRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}

		if user == nil {
			if req.Name == "" || len(req.Password) < 8 {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Name and a password of at least 8 characters are required for new users",
				})
				return
			}
			hash, hashErr := auth.HashPassword(req.Password)
			if hashErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
				return
			}
			user = &models.User{Email: req.Email, Name: req.Name, PasswordHash: hash}
			if err := h.userRepo.Create(ctx, user); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
				return
			}
		}

		existing, err := h.orgRepo.GetMember(ctx, orgID, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
			return
		}

		membership := &models.Membership{
			OrganizationID: orgID,
			UserID:         user.ID,
			Role:           req.Role,
			Permissions:    req.Permissions,
			IsActive:       true,
		}
		if err := h.orgRepo.AddMember(ctx, membership); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"membership": membership})
	}
}

// UpdateMemberRequest is the member update payload
type UpdateMemberRequest struct {
	Role        string              `json:"role" binding:"required"`
	Permissions []models.Permission `json:"permissions"`
	IsActive    *bool               `json:"is_active"`
}

// @Summary      Update member
// @Tags         Organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "membership"
// @Failure      404  {object}  map[string]interface{}  "Member not found"
// @Router       /api/v1/organization/members/{user_id} [put]
// UpdateMemberHandler updates a member's role, permissions, or active flag
// PUT /api/v1/organization/members/:user_id
func (h *OrganizationHandlers) UpdateMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		userID := c.Param("user_id")

		var req UpdateMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.Role != models.RoleNGOAdmin && req.Role != models.RoleMember {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		if err := auth.ValidatePermissions(req.Permissions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		membership, err := h.orgRepo.GetMember(c.Request.Context(), orgID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
			return
		}
		if membership == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}

		membership.Role = req.Role
		membership.Permissions = req.Permissions
		if req.IsActive != nil {
			membership.IsActive = *req.IsActive
		}

		if err := h.orgRepo.UpdateMember(c.Request.Context(), membership); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"membership": membership})
	}
}

// @Summary      Remove member
// @Tags         Organization
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Cannot remove yourself"
// @Failure      404  {object}  map[string]interface{}  "Member not found"
// @Router       /api/v1/organization/members/{user_id} [delete]
// RemoveMemberHandler removes a member from the organization
// DELETE /api/v1/organization/members/:user_id
func (h *OrganizationHandlers) RemoveMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		userID := c.Param("user_id")

		if userID == c.GetString("user_id") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove your own membership"})
			return
		}

		membership, err := h.orgRepo.GetMember(c.Request.Context(), orgID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
			return
		}
		if membership == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}

		if err := h.orgRepo.RemoveMember(c.Request.Context(), orgID, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
	}
}
