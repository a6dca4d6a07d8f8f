// Package api wires the HTTP surface of the platform together.
//
// Routes are grouped by trust tier: public endpoints (login, registration,
// plan catalogue) carry only rate limiting; authenticated endpoints add JWT
// auth and audit logging; organization endpoints additionally resolve the
// caller's active organization and enforce per-resource permissions; and the
// /admin tree is reserved for platform administrators. Handlers live in the
// per-domain packages under internal/api and are constructed here.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tanx-mis/tanx-mis/internal/api/accounts"
	"github.com/tanx-mis/tanx-mis/internal/api/admin"
	"github.com/tanx-mis/tanx-mis/internal/api/areas"
	"github.com/tanx-mis/tanx-mis/internal/api/dashboard"
	"github.com/tanx-mis/tanx-mis/internal/api/donors"
	"github.com/tanx-mis/tanx-mis/internal/api/planning"
	"github.com/tanx-mis/tanx-mis/internal/api/programs"
	"github.com/tanx-mis/tanx-mis/internal/api/projects"
	"github.com/tanx-mis/tanx-mis/internal/api/reports"
	"github.com/tanx-mis/tanx-mis/internal/audit"
	"github.com/tanx-mis/tanx-mis/internal/auth"
	"github.com/tanx-mis/tanx-mis/internal/config"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/jobs"
	"github.com/tanx-mis/tanx-mis/internal/middleware"
	"github.com/tanx-mis/tanx-mis/internal/services"
	"github.com/tanx-mis/tanx-mis/internal/storage"

	// Register storage backends
	_ "github.com/tanx-mis/tanx-mis/internal/storage/azure"
	_ "github.com/tanx-mis/tanx-mis/internal/storage/gcs"
	_ "github.com/tanx-mis/tanx-mis/internal/storage/local"
	_ "github.com/tanx-mis/tanx-mis/internal/storage/s3"
)

// BackgroundServices holds long-running services started by the router that
// need to be stopped during graceful shutdown.
type BackgroundServices struct {
	expiryNotifier *jobs.SubscriptionExpiryNotifier
	auditShipper   audit.Shipper
	rateLimiters   []*middleware.RateLimiter
}

// Shutdown stops all background services
func (s *BackgroundServices) Shutdown() {
	log.Println("Stopping background services...")
	if s.expiryNotifier != nil {
		s.expiryNotifier.Stop()
	}
	if s.auditShipper != nil {
		if err := s.auditShipper.Close(); err != nil {
			log.Printf("Warning: failed to close audit shipper: %v", err)
		}
	}
	for _, rl := range s.rateLimiters {
		rl.Stop()
	}
}

// NewRouter creates and configures the Gin router, along with any background
// services that need lifecycle management.
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	// Initialize storage backend for report attachments
	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	subRepo := repositories.NewSubscriptionRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// sqlx wraps the same pool for the aggregation queries
	sqlxDB := sqlx.NewDb(db, "postgres")

	// Plan limit checks are shared by project creation and admin plan changes
	subSvc := services.NewSubscriptionService(subRepo, projectRepo)

	// Start the subscription expiry notifier
	bg.expiryNotifier = jobs.NewSubscriptionExpiryNotifier(subRepo, orgRepo, &cfg.Notifications)
	go bg.expiryNotifier.Start(context.Background())
	log.Println("Started subscription expiry notifier")

	// Audit log shipping to external destinations, when configured
	auditMW := middleware.AuditMiddleware(auditRepo)
	if shipperCfgs := shipperConfigs(&cfg.Audit); len(shipperCfgs) > 0 {
		shipper, err := audit.NewMultiShipper(shipperCfgs)
		if err != nil {
			log.Fatalf("Failed to initialize audit shippers: %v", err)
		}
		bg.auditShipper = shipper
		auditMW = middleware.AuditMiddlewareWithShipper(auditRepo, shipper, &cfg.Audit)
		log.Println("Started audit log shipping")
	}

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health and readiness endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, storageBackend))
	router.GET("/version", versionHandler())

	// Initialize handlers
	authHandlers, err := accounts.NewAuthHandlers(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize auth handlers: %v", err)
	}
	registrationHandlers := accounts.NewRegistrationHandlers(db)
	orgHandlers := accounts.NewOrganizationHandlers(db)
	subscriptionHandlers := accounts.NewSubscriptionHandlers(db, subSvc)
	projectHandlers := projects.NewProjectHandlers(db, subSvc)
	programHandlers := programs.NewProgramHandlers(db, sqlxDB)
	planningHandlers := planning.NewPlanningHandlers(db)
	reportHandlers := reports.NewReportHandlers(db, storageBackend, cfg.Storage.Backend)
	areaHandlers := areas.NewAreaHandlers(db)
	donorHandlers := donors.NewDonorHandlers(db, sqlxDB)
	dashboardHandlers := dashboard.NewDashboardHandlers(sqlxDB)

	adminOrgHandlers := admin.NewOrganizationHandlers(db)
	adminPlanHandlers := admin.NewPlanHandlers(db)
	adminRequestHandlers := admin.NewRequestHandlers(db)
	adminUserHandlers := admin.NewUserHandlers(db)
	adminAuditHandlers := admin.NewAuditHandlers(db)

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	uploadRateLimiter := middleware.NewRateLimiter(middleware.UploadRateLimitConfig())
	bg.rateLimiters = append(bg.rateLimiters, authRateLimiter, generalRateLimiter, uploadRateLimiter)

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.POST("/register", registrationHandlers.RegisterHandler())
			authGroup.GET("/sso/login", authHandlers.SSOLoginHandler())
			authGroup.GET("/sso/callback", authHandlers.SSOCallbackHandler())
		}

		// Public plan catalogue, shown on the registration page
		publicGroup := apiV1.Group("")
		publicGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		{
			publicGroup.GET("/plans", subscriptionHandlers.ListPlansHandler())
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(userRepo))
		authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		authenticatedGroup.Use(auditMW) // Audit all authenticated actions
		{
			authenticatedGroup.POST("/auth/refresh", authHandlers.RefreshHandler())
			authenticatedGroup.GET("/auth/me", authHandlers.MeHandler())

			// Organization-scoped endpoints. RequireOrganization resolves the
			// caller's organization and rejects members of unapproved orgs.
			orgScoped := authenticatedGroup.Group("")
			orgScoped.Use(middleware.RequireOrganization(orgRepo))
			{
				// Organization profile and membership
				orgScoped.GET("/organization", orgHandlers.GetProfileHandler())
				orgScoped.PUT("/organization",
					middleware.RequireNGOAdmin(),
					orgHandlers.UpdateProfileHandler())

				membersGroup := orgScoped.Group("/organization/members")
				membersGroup.Use(middleware.RequireNGOAdmin())
				{
					membersGroup.GET("", orgHandlers.ListMembersHandler())
					membersGroup.POST("", orgHandlers.AddMemberHandler())
					membersGroup.PUT("/:user_id", orgHandlers.UpdateMemberHandler())
					membersGroup.DELETE("/:user_id", orgHandlers.RemoveMemberHandler())
				}

				// Subscription self-service
				orgScoped.GET("/subscription",
					middleware.RequirePermission(auth.ResourceSubscriptions, auth.ActionRead),
					subscriptionHandlers.GetSubscriptionHandler())
				orgScoped.GET("/subscription/history",
					middleware.RequirePermission(auth.ResourceSubscriptions, auth.ActionRead),
					subscriptionHandlers.ListSubscriptionsHandler())
				orgScoped.GET("/subscription/requests",
					middleware.RequirePermission(auth.ResourceSubscriptions, auth.ActionRead),
					subscriptionHandlers.ListRequestsHandler())
				orgScoped.POST("/subscription/requests",
					middleware.RequireNGOAdmin(),
					subscriptionHandlers.CreateRequestHandler())

				// Projects
				projectsGroup := orgScoped.Group("/projects")
				{
					projectsGroup.GET("", middleware.RequirePermission(auth.ResourceProjects, auth.ActionRead), projectHandlers.ListProjectsHandler())
					projectsGroup.POST("", middleware.RequirePermission(auth.ResourceProjects, auth.ActionCreate), projectHandlers.CreateProjectHandler())
					projectsGroup.GET("/:id", middleware.RequirePermission(auth.ResourceProjects, auth.ActionRead), projectHandlers.GetProjectHandler())
					projectsGroup.PUT("/:id", middleware.RequirePermission(auth.ResourceProjects, auth.ActionUpdate), projectHandlers.UpdateProjectHandler())
					projectsGroup.PATCH("/:id/status", middleware.RequirePermission(auth.ResourceProjects, auth.ActionUpdate), projectHandlers.UpdateStatusHandler())
					projectsGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourceProjects, auth.ActionDelete), projectHandlers.DeleteProjectHandler())

					// Program and donor links
					projectsGroup.GET("/:id/programs", middleware.RequirePermission(auth.ResourceProjects, auth.ActionRead), projectHandlers.ListProgramsHandler())
					projectsGroup.POST("/:id/programs/:programID", middleware.RequirePermission(auth.ResourceProjects, auth.ActionUpdate), projectHandlers.AttachProgramHandler())
					projectsGroup.DELETE("/:id/programs/:programID", middleware.RequirePermission(auth.ResourceProjects, auth.ActionUpdate), projectHandlers.DetachProgramHandler())
					projectsGroup.GET("/:id/donors", middleware.RequirePermission(auth.ResourceProjects, auth.ActionRead), projectHandlers.ListDonorsHandler())
					projectsGroup.POST("/:id/donors/:donorID", middleware.RequirePermission(auth.ResourceProjects, auth.ActionUpdate), projectHandlers.AttachDonorHandler())
					projectsGroup.DELETE("/:id/donors/:donorID", middleware.RequirePermission(auth.ResourceProjects, auth.ActionUpdate), projectHandlers.DetachDonorHandler())
				}

				// Programs
				programsGroup := orgScoped.Group("/programs")
				{
					programsGroup.GET("", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionRead), programHandlers.ListProgramsHandler())
					programsGroup.POST("", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionCreate), programHandlers.CreateProgramHandler())
					programsGroup.GET("/:id", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionRead), programHandlers.GetProgramHandler())
					programsGroup.PUT("/:id", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionUpdate), programHandlers.UpdateProgramHandler())
					programsGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionDelete), programHandlers.DeleteProgramHandler())
					programsGroup.GET("/:id/projects", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionRead), programHandlers.ListProjectsHandler())
					programsGroup.GET("/:id/progress", middleware.RequirePermission(auth.ResourcePrograms, auth.ActionRead), programHandlers.GetProgressHandler())
				}

				// Objectives and indicators
				objectivesGroup := orgScoped.Group("/objectives")
				{
					objectivesGroup.GET("", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionRead), planningHandlers.ListObjectivesHandler())
					objectivesGroup.POST("", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionCreate), planningHandlers.CreateObjectiveHandler())
					objectivesGroup.GET("/:id", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionRead), planningHandlers.GetObjectiveHandler())
					objectivesGroup.PUT("/:id", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionUpdate), planningHandlers.UpdateObjectiveHandler())
					objectivesGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionDelete), planningHandlers.DeleteObjectiveHandler())
					objectivesGroup.GET("/:id/indicators", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionRead), planningHandlers.ListIndicatorsHandler())
					objectivesGroup.POST("/:id/indicators", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionCreate), planningHandlers.CreateIndicatorHandler())
				}
				orgScoped.PUT("/indicators/:id", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionUpdate), planningHandlers.UpdateIndicatorHandler())
				orgScoped.DELETE("/indicators/:id", middleware.RequirePermission(auth.ResourceObjectives, auth.ActionDelete), planningHandlers.DeleteIndicatorHandler())

				// Interventions and activities
				interventionsGroup := orgScoped.Group("/interventions")
				{
					interventionsGroup.GET("", middleware.RequirePermission(auth.ResourceActivities, auth.ActionRead), planningHandlers.ListInterventionsHandler())
					interventionsGroup.POST("", middleware.RequirePermission(auth.ResourceActivities, auth.ActionCreate), planningHandlers.CreateInterventionHandler())
					interventionsGroup.PUT("/:id", middleware.RequirePermission(auth.ResourceActivities, auth.ActionUpdate), planningHandlers.UpdateInterventionHandler())
					interventionsGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourceActivities, auth.ActionDelete), planningHandlers.DeleteInterventionHandler())
					interventionsGroup.GET("/:id/sub-interventions", middleware.RequirePermission(auth.ResourceActivities, auth.ActionRead), planningHandlers.ListSubInterventionsHandler())
					interventionsGroup.POST("/:id/sub-interventions", middleware.RequirePermission(auth.ResourceActivities, auth.ActionCreate), planningHandlers.CreateSubInterventionHandler())
				}
				orgScoped.DELETE("/sub-interventions/:id", middleware.RequirePermission(auth.ResourceActivities, auth.ActionDelete), planningHandlers.DeleteSubInterventionHandler())

				activitiesGroup := orgScoped.Group("/activities")
				{
					activitiesGroup.GET("", middleware.RequirePermission(auth.ResourceActivities, auth.ActionRead), planningHandlers.ListActivitiesHandler())
					activitiesGroup.POST("", middleware.RequirePermission(auth.ResourceActivities, auth.ActionCreate), planningHandlers.CreateActivityHandler())
					activitiesGroup.GET("/:id", middleware.RequirePermission(auth.ResourceActivities, auth.ActionRead), planningHandlers.GetActivityHandler())
					activitiesGroup.PUT("/:id", middleware.RequirePermission(auth.ResourceActivities, auth.ActionUpdate), planningHandlers.UpdateActivityHandler())
					activitiesGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourceActivities, auth.ActionDelete), planningHandlers.DeleteActivityHandler())
				}

				// Reports and attachments
				reportsGroup := orgScoped.Group("/reports")
				{
					reportsGroup.GET("", middleware.RequirePermission(auth.ResourceReports, auth.ActionRead), reportHandlers.ListReportsHandler())
					reportsGroup.POST("", middleware.RequirePermission(auth.ResourceReports, auth.ActionCreate), reportHandlers.SubmitReportHandler())
					reportsGroup.GET("/:id", middleware.RequirePermission(auth.ResourceReports, auth.ActionRead), reportHandlers.GetReportHandler())
					reportsGroup.PUT("/:id", middleware.RequirePermission(auth.ResourceReports, auth.ActionUpdate), reportHandlers.UpdateReportHandler())
					reportsGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourceReports, auth.ActionDelete), reportHandlers.DeleteReportHandler())

					// Review decisions are restricted to NGO admins
					reportsGroup.POST("/:id/approve", middleware.RequireNGOAdmin(), reportHandlers.ApproveReportHandler())
					reportsGroup.POST("/:id/reject", middleware.RequireNGOAdmin(), reportHandlers.RejectReportHandler())

					reportsGroup.GET("/:id/attachments", middleware.RequirePermission(auth.ResourceReports, auth.ActionRead), reportHandlers.ListAttachmentsHandler())
					reportsGroup.POST("/:id/attachments",
						middleware.RateLimitMiddleware(uploadRateLimiter), // Stricter rate limit for uploads
						middleware.RequirePermission(auth.ResourceReports, auth.ActionUpdate),
						reportHandlers.UploadAttachmentHandler())
					reportsGroup.GET("/:id/attachments/:attachment_id/download", middleware.RequirePermission(auth.ResourceReports, auth.ActionRead), reportHandlers.DownloadAttachmentHandler())
					reportsGroup.DELETE("/:id/attachments/:attachment_id", middleware.RequirePermission(auth.ResourceReports, auth.ActionUpdate), reportHandlers.DeleteAttachmentHandler())
				}

				// Area hierarchy
				areasReadMW := middleware.RequirePermission(auth.ResourceAreas, auth.ActionRead)
				areasCreateMW := middleware.RequirePermission(auth.ResourceAreas, auth.ActionCreate)
				areasDeleteMW := middleware.RequirePermission(auth.ResourceAreas, auth.ActionDelete)
				{
					orgScoped.GET("/states", areasReadMW, areaHandlers.ListStatesHandler())
					orgScoped.POST("/states", areasCreateMW, areaHandlers.CreateStateHandler())
					orgScoped.DELETE("/states/:id", areasDeleteMW, areaHandlers.DeleteStateHandler())
					orgScoped.GET("/states/:id/districts", areasReadMW, areaHandlers.ListDistrictsHandler())
					orgScoped.POST("/states/:id/districts", areasCreateMW, areaHandlers.CreateDistrictHandler())
					orgScoped.DELETE("/districts/:id", areasDeleteMW, areaHandlers.DeleteDistrictHandler())
					orgScoped.GET("/districts/:id/blocks", areasReadMW, areaHandlers.ListBlocksHandler())
					orgScoped.POST("/districts/:id/blocks", areasCreateMW, areaHandlers.CreateBlockHandler())
					orgScoped.DELETE("/blocks/:id", areasDeleteMW, areaHandlers.DeleteBlockHandler())
					orgScoped.GET("/blocks/:id/gram-panchayats", areasReadMW, areaHandlers.ListGramPanchayatsHandler())
					orgScoped.POST("/blocks/:id/gram-panchayats", areasCreateMW, areaHandlers.CreateGramPanchayatHandler())
					orgScoped.DELETE("/gram-panchayats/:id", areasDeleteMW, areaHandlers.DeleteGramPanchayatHandler())
					orgScoped.GET("/gram-panchayats/:id/villages", areasReadMW, areaHandlers.ListVillagesHandler())
					orgScoped.POST("/gram-panchayats/:id/villages", areasCreateMW, areaHandlers.CreateVillageHandler())
					orgScoped.DELETE("/villages/:id", areasDeleteMW, areaHandlers.DeleteVillageHandler())
				}

				// Donors
				donorsGroup := orgScoped.Group("/donors")
				{
					donorsGroup.GET("", middleware.RequirePermission(auth.ResourceDonors, auth.ActionRead), donorHandlers.ListDonorsHandler())
					donorsGroup.POST("", middleware.RequirePermission(auth.ResourceDonors, auth.ActionCreate), donorHandlers.CreateDonorHandler())
					donorsGroup.GET("/:id", middleware.RequirePermission(auth.ResourceDonors, auth.ActionRead), donorHandlers.GetDonorHandler())
					donorsGroup.PUT("/:id", middleware.RequirePermission(auth.ResourceDonors, auth.ActionUpdate), donorHandlers.UpdateDonorHandler())
					donorsGroup.DELETE("/:id", middleware.RequirePermission(auth.ResourceDonors, auth.ActionDelete), donorHandlers.DeleteDonorHandler())
					donorsGroup.GET("/:id/summary", middleware.RequirePermission(auth.ResourceDonors, auth.ActionRead), donorHandlers.GetSummaryHandler())
				}

				// Dashboard snapshot, available to any org member
				orgScoped.GET("/dashboard/summary", dashboardHandlers.GetSummaryHandler())
			}

			// Platform admin endpoints
			adminGroup := authenticatedGroup.Group("/admin")
			adminGroup.Use(middleware.RequirePlatformAdmin())
			{
				adminGroup.GET("/organizations", adminOrgHandlers.ListOrganizationsHandler())
				adminGroup.GET("/organizations/:id", adminOrgHandlers.GetOrganizationHandler())
				adminGroup.POST("/organizations/:id/approve", adminOrgHandlers.ApproveOrganizationHandler())
				adminGroup.POST("/organizations/:id/reject", adminOrgHandlers.RejectOrganizationHandler())
				adminGroup.POST("/organizations/:id/suspend", adminOrgHandlers.SuspendOrganizationHandler())
				adminGroup.DELETE("/organizations/:id", adminOrgHandlers.DeleteOrganizationHandler())

				adminGroup.GET("/plans", adminPlanHandlers.ListPlansHandler())
				adminGroup.POST("/plans", adminPlanHandlers.CreatePlanHandler())
				adminGroup.GET("/plans/:id", adminPlanHandlers.GetPlanHandler())
				adminGroup.PUT("/plans/:id", adminPlanHandlers.UpdatePlanHandler())
				adminGroup.DELETE("/plans/:id", adminPlanHandlers.DeletePlanHandler())

				adminGroup.GET("/subscription-requests", adminRequestHandlers.ListRequestsHandler())
				adminGroup.POST("/subscription-requests/:id/approve", adminRequestHandlers.ApproveRequestHandler())
				adminGroup.POST("/subscription-requests/:id/reject", adminRequestHandlers.RejectRequestHandler())

				adminGroup.GET("/users", adminUserHandlers.ListUsersHandler())
				adminGroup.GET("/users/:id", adminUserHandlers.GetUserHandler())

				adminGroup.GET("/audit-logs", adminAuditHandlers.ListAuditLogsHandler())
				adminGroup.GET("/audit-logs/:id", adminAuditHandlers.GetAuditLogHandler())
			}
		}
	}

	return router, bg
}

// shipperConfigs converts the viper-bound audit shipper configuration into the
// audit package's config type, skipping disabled entries.
func shipperConfigs(cfg *config.AuditConfig) []audit.ShipperConfig {
	out := make([]audit.ShipperConfig, 0, len(cfg.Shippers))
	for _, s := range cfg.Shippers {
		if !s.Enabled {
			continue
		}
		c := audit.ShipperConfig{
			Enabled: true,
			Type:    s.Type,
		}
		if s.Webhook != nil {
			c.Webhook = &audit.WebhookConfig{
				URL:           s.Webhook.URL,
				Headers:       s.Webhook.Headers,
				Timeout:       time.Duration(s.Webhook.TimeoutSecs) * time.Second,
				BatchSize:     s.Webhook.BatchSize,
				FlushInterval: time.Duration(s.Webhook.FlushInterval) * time.Second,
			}
		}
		if s.File != nil {
			c.File = &audit.FileConfig{
				Path:       s.File.Path,
				MaxSizeMB:  s.File.MaxSizeMB,
				MaxBackups: s.File.MaxBackups,
			}
		}
		out = append(out, c)
	}
	return out
}

// @Summary      Health check
// @Description  Returns the liveness status of the service. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database and storage backend connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks the storage backend so
// that a Kubernetes readiness gate fails when attachment uploads/downloads
// would error.
func readinessHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Probe the storage backend with a known-absent sentinel path.
		// Exists() exercises authentication and network connectivity without
		// creating any state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
