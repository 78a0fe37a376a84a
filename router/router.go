package router

import (
	"github.com/backlot-hq/backlot-backend/config"
	"github.com/backlot-hq/backlot-backend/handlers"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config        *config.Config
	EntryHandler  *handlers.EntryHandler
	DraftHandler  *handlers.DraftHandler
	RouteHandler  *handlers.RouteHandler
	HealthHandler *handlers.HealthHandler
	Memberships   istore.MembershipStore
	Logger        *zap.SugaredLogger
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Health and Metrics Routes (no auth)
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Versioned API Group (v1)
	v1 := r.Group("/v1")
	{
		authMiddleware := middleware.AuthMiddleware(&deps.Config.Server)
		authRoutes := v1.Group("")
		authRoutes.Use(authMiddleware)
		{
			// Project-scoped entry routes. The role middleware resolves the
			// caller's membership once per request.
			projectRoutes := authRoutes.Group("/projects/:id")
			projectRoutes.Use(middleware.ProjectRoleMiddleware(deps.Memberships))
			{
				projectRoutes.GET("/entries", deps.EntryHandler.ListEntriesHandler)
				projectRoutes.GET("/entries/pending-count", deps.EntryHandler.PendingCountHandler)
				projectRoutes.POST("/entries", deps.EntryHandler.CreateEntryHandler)
				projectRoutes.POST("/entries/bulk-submit", deps.EntryHandler.BulkSubmitHandler)
			}

			// Entry-level routes carry no project segment; the handler
			// resolves ownership and role from the entry itself.
			entryRoutes := authRoutes.Group("/entries")
			{
				entryRoutes.PUT("/:entryID", deps.EntryHandler.UpdateEntryHandler)
				entryRoutes.DELETE("/:entryID", deps.EntryHandler.DeleteEntryHandler)
				entryRoutes.POST("/:entryID/submit", deps.EntryHandler.SubmitEntryHandler)
				entryRoutes.POST("/:entryID/approve", deps.EntryHandler.ApproveEntryHandler)
				entryRoutes.POST("/:entryID/reject", deps.EntryHandler.RejectEntryHandler)
				entryRoutes.POST("/:entryID/complete", deps.EntryHandler.CompleteEntryHandler)
				entryRoutes.POST("/:entryID/reimburse", deps.EntryHandler.MarkReimbursedHandler)
			}

			// Form draft autosave
			draftRoutes := authRoutes.Group("/drafts")
			{
				draftRoutes.PUT("/:kind", deps.DraftHandler.SaveDraftHandler)
				draftRoutes.GET("/:kind", deps.DraftHandler.GetDraftHandler)
				draftRoutes.DELETE("/:kind", deps.DraftHandler.DeleteDraftHandler)
			}

			// Mileage form side channels
			authRoutes.POST("/route/calculate", deps.RouteHandler.CalculateRouteHandler)
			authRoutes.GET("/places/search", deps.RouteHandler.SearchPlacesHandler)
		}
	}

	return r
}
