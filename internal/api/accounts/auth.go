// auth.go implements HTTP handlers for password login, token refresh, the
// current-user endpoint, and the optional OIDC single sign-on flow.
package accounts

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/auth"
	"github.com/tanx-mis/tanx-mis/internal/auth/oidc"
	"github.com/tanx-mis/tanx-mis/internal/config"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
)

// AuthHandlers handles authentication-related endpoints
type AuthHandlers struct {
	cfg          *config.Config
	userRepo     *repositories.UserRepository
	orgRepo      *repositories.OrganizationRepository
	oidcProvider *oidc.OIDCProvider

	mu           sync.Mutex
	sessionStore map[string]*SessionState // In-memory; SSO state is short-lived
}

// SessionState represents OAuth state during the SSO flow
type SessionState struct {
	State     string
	CreatedAt time.Time
}

// NewAuthHandlers creates a new AuthHandlers instance. The OIDC provider is
// only initialized when SSO is enabled in config.
func NewAuthHandlers(cfg *config.Config, db *sql.DB) (*AuthHandlers, error) {
	h := &AuthHandlers{
		cfg:          cfg,
		userRepo:     repositories.NewUserRepository(db),
		orgRepo:      repositories.NewOrganizationRepository(db),
		sessionStore: make(map[string]*SessionState),
	}

	if cfg.Auth.OIDC.Enabled {
		provider, err := oidc.NewOIDCProvider(&cfg.Auth.OIDC)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		h.oidcProvider = provider
	}

	return h, nil
}

func (h *AuthHandlers) tokenTTL() time.Duration {
	minutes := h.cfg.Auth.TokenTTLMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// generateState creates a cryptographically secure random state parameter
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// LoginRequest is the password login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Password login
// @Description  Authenticates with email and password and returns a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "token, expires_at, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates a user with email and password
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}

		// Same response for unknown email and wrong password
		if user == nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		h.issueToken(c, user)
	}
}

// @Summary      Refresh token
// @Description  Issues a fresh bearer token for the authenticated user.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "token, expires_at, user"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/refresh [post]
// RefreshHandler issues a new token for the already-authenticated caller
// POST /api/v1/auth/refresh
func (h *AuthHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, ok := userVal.(*models.User)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		h.issueToken(c, user)
	}
}

// @Summary      Current user
// @Description  Returns the authenticated user with their effective organization membership.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user, membership"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/me [get]
// MeHandler returns the authenticated user and their effective membership
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, ok := userVal.(*models.User)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		resp := gin.H{"user": userResponse(user)}

		membership, err := h.orgRepo.GetFirstActiveMembership(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve membership"})
			return
		}
		if membership != nil {
			resp["membership"] = gin.H{
				"organization_id":     membership.OrganizationID,
				"organization_name":   membership.OrganizationName,
				"organization_status": membership.OrganizationStatus,
				"role":                membership.Role,
				"permissions":         membership.Permissions,
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// @Summary      Begin SSO login
// @Description  Redirects to the configured OIDC provider's authorization endpoint.
// @Tags         Auth
// @Success      302  {string}  string  "Redirect to identity provider"
// @Failure      404  {object}  map[string]interface{}  "SSO not enabled"
// @Router       /api/v1/auth/sso/login [get]
// SSOLoginHandler starts the OIDC authorization code flow
// GET /api/v1/auth/sso/login
func (h *AuthHandlers) SSOLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oidcProvider == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "SSO is not enabled"})
			return
		}

		state, err := generateState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate state"})
			return
		}

		h.mu.Lock()
		h.sessionStore[state] = &SessionState{State: state, CreatedAt: time.Now()}
		h.pruneStatesLocked()
		h.mu.Unlock()

		c.Redirect(http.StatusFound, h.oidcProvider.GetAuthURL(state))
	}
}

// @Summary      SSO callback
// @Description  Completes the OIDC flow: exchanges the code, verifies the ID token, provisions the user if needed, and returns a bearer token.
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "token, expires_at, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid state or code"
// @Router       /api/v1/auth/sso/callback [get]
// SSOCallbackHandler completes the OIDC authorization code flow
// GET /api/v1/auth/sso/callback?state=...&code=...
func (h *AuthHandlers) SSOCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oidcProvider == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "SSO is not enabled"})
			return
		}

		state := c.Query("state")
		code := c.Query("code")
		if state == "" || code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing state or code"})
			return
		}

		h.mu.Lock()
		session, known := h.sessionStore[state]
		delete(h.sessionStore, state)
		h.mu.Unlock()

		if !known || time.Since(session.CreatedAt) > 10*time.Minute {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired state"})
			return
		}

		token, err := h.oidcProvider.ExchangeCode(c.Request.Context(), code)
		if err != nil {
			slog.Error("SSO code exchange failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Code exchange failed"})
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No ID token in response"})
			return
		}

		idToken, err := h.oidcProvider.VerifyIDToken(c.Request.Context(), rawIDToken)
		if err != nil {
			slog.Error("SSO ID token verification failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID token verification failed"})
			return
		}

		_, email, name, err := h.oidcProvider.ExtractUserInfo(idToken)
		if err != nil || email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID token missing email claim"})
			return
		}

		user, err := h.findOrCreateSSOUser(c, email, name)
		if err != nil {
			slog.Error("SSO user provisioning failed", "error", err, "email", email)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision user"})
			return
		}

		h.issueToken(c, user)
	}
}

// findOrCreateSSOUser looks up the user by the verified email claim, creating
// an account with an unusable password when this is their first SSO login.
// Membership in an organization is granted separately by an org admin.
func (h *AuthHandlers) findOrCreateSSOUser(c *gin.Context, email, name string) (*models.User, error) {
	user, err := h.userRepo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	random, err := generateState()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(random)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		return nil, err
	}

	slog.Info("provisioned user via SSO", "user_id", user.ID, "email", email)
	return user, nil
}

// pruneStatesLocked drops SSO states older than ten minutes. Caller holds mu.
func (h *AuthHandlers) pruneStatesLocked() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for k, s := range h.sessionStore {
		if s.CreatedAt.Before(cutoff) {
			delete(h.sessionStore, k)
		}
	}
}

// issueToken writes the standard token response for a user
func (h *AuthHandlers) issueToken(c *gin.Context, user *models.User) {
	ttl := h.tokenTTL()
	token, err := auth.GenerateJWT(user.ID, user.Email, ttl)
	if err != nil {
		slog.Error("failed to generate token", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
		"user":       userResponse(user),
	})
}

// userResponse strips the password hash from API responses
func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":                u.ID,
		"email":             u.Email,
		"name":              u.Name,
		"phone":             u.Phone,
		"is_platform_admin": u.IsPlatformAdmin,
		"created_at":        u.CreatedAt,
	}
}
