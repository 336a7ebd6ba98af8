// Package api - Router setup
package api

import (
	"net/http"
	"time"

	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/config"
	"github.com/aethra/misight/internal/ui"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(handler *Handler, corsCfg config.CORSConfig, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(handler.log))

	// When credentials are used, specific origins must be provided (not *)
	if len(corsCfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsCfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", requestIDHeader},
			AllowCredentials: corsCfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.StaticFS("/static", http.FS(ui.Static()))

	// Health and metrics (no auth required)
	r.GET("/api/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	pages := r.Group("/")
	pages.Use(handler.SessionMiddleware())
	{
		pages.GET("/login", handler.LoginPage)
		pages.POST("/login", handler.Login)
		pages.POST("/logout", handler.Logout)
	}

	// ==========================================================================
	// PORTAL - every page below requires a session
	// ==========================================================================
	portal := r.Group("/")
	portal.Use(handler.SessionMiddleware())
	portal.Use(handler.RequireSessionMiddleware())
	{
		portal.GET("/", handler.Root)
		portal.GET("/dashboard", handler.Dashboard)

		sections := portal.Group("/sections")
		{
			// View permission
			sections.GET("/:section", handler.SectionMiddleware(auth.ActionView), handler.ListSection)
			sections.GET("/:section/range", handler.SectionMiddleware(auth.ActionView), handler.RangeSection)
			sections.GET("/:section/export", handler.SectionMiddleware(auth.ActionExport), handler.ExportSection)

			// Create permission
			sections.GET("/:section/new", handler.SectionMiddleware(auth.ActionCreate), handler.NewRecord)
			sections.POST("/:section", handler.SectionMiddleware(auth.ActionCreate), handler.CreateRecord)

			// Edit permission
			sections.GET("/:section/:id/edit", handler.SectionMiddleware(auth.ActionEdit), handler.EditRecord)
			sections.POST("/:section/:id", handler.SectionMiddleware(auth.ActionEdit), handler.UpdateRecord)

			// Delete permission
			sections.GET("/:section/:id/delete", handler.SectionMiddleware(auth.ActionDelete), handler.ConfirmDelete)
			sections.POST("/:section/:id/delete", handler.SectionMiddleware(auth.ActionDelete), handler.DeleteRecord)
		}
	}

	r.NoRoute(handler.SessionMiddleware(), func(c *gin.Context) {
		handler.renderError(c, http.StatusNotFound, "Page not found", "/dashboard")
	})

	return r
}
