package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/middleware"
	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Catalog     *CatalogHandler
	SOS         *SOSHandler
	LostFound   *LostFoundHandler
	Deductions  *DeductionHandler
	Settings    *SettingsHandler
	Attachments *AttachmentHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes wires all API routes under the given prefix. Routes open to
// guests carry OptionalJWT so signed-in callers keep their identity; the
// rest require a session and, where the operation is role-gated, a
// capability check.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authService *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.GET("/identities", h.Auth.Identities)
		auth.POST("/sessions", h.Auth.CreateSession)
		auth.GET("/me", middleware.JWT(authService), h.Auth.Me)
	}

	users := api.Group("/users", middleware.JWT(authService))
	{
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.POST("", middleware.RequireCapability(models.CapManageUsers), h.Users.Create)
		users.PUT("/:id", middleware.RequireCapability(models.CapManageUsers), h.Users.Update)
		users.PUT("/:id/avatar", h.Users.UpdateAvatar)
		users.DELETE("/:id", middleware.RequireCapability(models.CapManageUsers), h.Users.Delete)
	}

	catalog := api.Group("/catalog")
	{
		catalog.GET("/locations", h.Catalog.Locations)
		catalog.GET("/rules", h.Catalog.Rules)
		catalog.GET("/incident-categories", h.Catalog.IncidentCategories)
		catalog.GET("/item-categories", h.Catalog.ItemCategories)
	}

	sos := api.Group("/sos/alerts")
	{
		sos.POST("", middleware.OptionalJWT(authService), h.SOS.Raise)
		sos.GET("", middleware.JWT(authService), middleware.RequireCapability(models.CapViewAlertQueue), h.SOS.ListQueue)
		sos.GET("/mine", middleware.JWT(authService), h.SOS.ListMine)
		sos.GET("/:id", middleware.OptionalJWT(authService), h.SOS.Get)
		sos.POST("/:id/acknowledge", middleware.JWT(authService), middleware.RequireCapability(models.CapAcknowledgeAlerts), h.SOS.Acknowledge)
	}

	items := api.Group("/lost-found/items")
	{
		items.POST("", middleware.OptionalJWT(authService), h.LostFound.Report)
		items.GET("", h.LostFound.List)
		items.GET("/:id", h.LostFound.Get)
		items.POST("/:id/claim", middleware.OptionalJWT(authService), h.LostFound.Claim)
	}

	api.POST("/deductions", middleware.JWT(authService), middleware.RequireCapability(models.CapRecordDeductions), h.Deductions.Record)

	students := api.Group("/students", middleware.JWT(authService))
	{
		students.GET("/:id/deductions", h.Deductions.ListByStudent)
		students.GET("/:id/deductions/summary", h.Deductions.Summary)
		students.POST("/:id/deductions/export", middleware.RequireCapability(models.CapExportDeductions), h.Deductions.Export)
	}

	// Download authenticates by signed token, not session.
	api.GET("/exports/download", h.Deductions.Download)

	settings := api.Group("/settings")
	{
		settings.GET("", h.Settings.Get)
		settings.PUT("", middleware.JWT(authService), middleware.RequireCapability(models.CapManageSettings), h.Settings.Update)
	}

	attachments := api.Group("/attachments")
	{
		attachments.POST("", h.Attachments.Upload)
		attachments.GET("/:filename", h.Attachments.Serve)
	}
}
