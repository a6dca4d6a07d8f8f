// audit.go provides Gin middleware that records authenticated write operations
// to the audit log, with optional shipping to external audit destinations.
// Audit writes are best-effort: a failed write never fails the request, but it
// is surfaced in the logs and the audit_write_failures_total metric.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanx-mis/tanx-mis/internal/audit"
	"github.com/tanx-mis/tanx-mis/internal/config"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// AuditMiddleware logs authenticated actions to the database only
func AuditMiddleware(auditRepo *repositories.AuditRepository) gin.HandlerFunc {
	return AuditMiddlewareWithShipper(auditRepo, nil, nil)
}

// AuditMiddlewareWithShipper logs authenticated actions and ships to external
// destinations
func AuditMiddlewareWithShipper(auditRepo *repositories.AuditRepository, shipper audit.Shipper, auditCfg *config.AuditConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request first
		c.Next()

		// Skip OPTIONS always
		if c.Request.Method == "OPTIONS" {
			return
		}

		// Determine what to log based on config
		logReadOps := auditCfg != nil && auditCfg.LogReadOperations
		logFailedReqs := auditCfg != nil && auditCfg.LogFailedRequests

		isReadOp := c.Request.Method == "GET"
		isFailed := c.Writer.Status() >= 400

		// Default behavior: only log successful write operations
		if auditCfg == nil {
			if isReadOp || isFailed {
				return
			}
		} else {
			if isReadOp && !logReadOps {
				return
			}
			if isFailed && !logFailedReqs {
				return
			}
		}

		userID, _ := c.Get("user_id")
		orgID, _ := c.Get("organization_id")

		action := auditAction(c)
		ipAddress := c.ClientIP()
		userAgent := c.Request.UserAgent()

		auditLog := &models.AuditLog{
			Action:       action,
			ResourceType: auditResourceType(c.Request.URL.Path),
			IPAddress:    &ipAddress,
			CreatedAt:    time.Now(),
		}
		if userAgent != "" {
			auditLog.UserAgent = &userAgent
		}
		if resourceID := auditResourceID(c); resourceID != "" {
			auditLog.ResourceID = &resourceID
		}

		var userIDStr string
		if uid, ok := userID.(string); ok {
			userIDStr = uid
			auditLog.UserID = &userIDStr
		}

		var orgIDStr string
		if oid, ok := orgID.(string); ok {
			orgIDStr = oid
			auditLog.OrganizationID = &orgIDStr
		}

		metadata := map[string]interface{}{
			"status_code": c.Writer.Status(),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
		}
		auditLog.Metadata = metadata

		// Async log creation (non-blocking)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if auditRepo != nil {
				if err := auditRepo.CreateAuditLog(ctx, auditLog); err != nil {
					slog.Error("failed to write audit log", "action", auditLog.Action, "error", err)
					telemetry.AuditWriteFailuresTotal.WithLabelValues("db").Inc()
				}
			}

			if shipper != nil {
				entry := &audit.LogEntry{
					Timestamp:      auditLog.CreatedAt,
					Action:         auditLog.Action,
					UserID:         userIDStr,
					OrganizationID: orgIDStr,
					ResourceType:   auditLog.ResourceType,
					IPAddress:      ipAddress,
					StatusCode:     c.Writer.Status(),
					Metadata:       metadata,
				}
				if err := shipper.Ship(ctx, entry); err != nil {
					slog.Error("failed to ship audit log", "action", auditLog.Action, "error", err)
					telemetry.AuditWriteFailuresTotal.WithLabelValues("shipper").Inc()
				}
			}
		}()
	}
}

// auditResourceType maps a request path to the resource type recorded in the
// audit log
func auditResourceType(path string) string {
	switch {
	case strings.Contains(path, "/reports"):
		return "report"
	case strings.Contains(path, "/projects"):
		return "project"
	case strings.Contains(path, "/programs"):
		return "program"
	case strings.Contains(path, "/objectives"), strings.Contains(path, "/indicators"):
		return "objective"
	case strings.Contains(path, "/activities"), strings.Contains(path, "/interventions"):
		return "activity"
	case strings.Contains(path, "/states"), strings.Contains(path, "/districts"),
		strings.Contains(path, "/blocks"), strings.Contains(path, "/gram-panchayats"),
		strings.Contains(path, "/villages"):
		return "area"
	case strings.Contains(path, "/donors"):
		return "donor"
	case strings.Contains(path, "/members"):
		return "membership"
	case strings.Contains(path, "/subscription"):
		return "subscription"
	case strings.Contains(path, "/plans"):
		return "plan"
	case strings.Contains(path, "/organizations"):
		return "organization"
	case strings.Contains(path, "/users"):
		return "user"
	case strings.Contains(path, "/auth"):
		return "auth"
	default:
		return "other"
	}
}

// auditAction derives the recorded action. Review decisions get their own
// action names so they are easy to filter; everything else is METHOD + path.
func auditAction(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case strings.HasSuffix(path, "/approve") && strings.Contains(path, "/reports"):
		return "report.approved"
	case strings.HasSuffix(path, "/reject") && strings.Contains(path, "/reports"):
		return "report.rejected"
	case strings.HasSuffix(path, "/approve") && strings.Contains(path, "/organizations"):
		return "organization.approved"
	case strings.HasSuffix(path, "/reject") && strings.Contains(path, "/organizations"):
		return "organization.rejected"
	default:
		return fmt.Sprintf("%s %s", c.Request.Method, path)
	}
}

// auditResourceID pulls the most specific path parameter, if any
func auditResourceID(c *gin.Context) string {
	for _, name := range []string{"attachmentId", "reportId", "projectId", "programId", "id"} {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	return ""
}
