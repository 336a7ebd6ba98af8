// Package api contains the HTTP handlers of the MiSight portal
package api

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/config"
	"github.com/aethra/misight/internal/database"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/section"
	"github.com/aethra/misight/internal/ui"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Version is reported by the health endpoint; set at build time
var Version = "dev"

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler contains all portal handlers
type Handler struct {
	auth     *auth.Service
	sections *section.Registry
	renderer *ui.Renderer
	db       *gorm.DB
	cookie   CookieConfig
	log      logger.Logger
}

// NewHandler creates the portal handler
func NewHandler(authService *auth.Service, sections *section.Registry, renderer *ui.Renderer, db *gorm.DB, cfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{
		auth:     authService,
		sections: sections,
		renderer: renderer,
		db:       db,
		cookie:   CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure},
		log:      log,
	}
}

// =============================================================================
// PAGE HELPERS
// =============================================================================

// writePage wraps content in the layout, adding the navigation of the signed-in user
func (h *Handler) writePage(c *gin.Context, status int, page ui.Page, content template.HTML) {
	page.Content = content
	if sess, ok := sessionFrom(c); ok {
		page.User = &ui.UserInfo{Username: sess.Username, RoleLabel: sess.Role.Label()}
		for _, ctrl := range h.sections.Visible(sess.Role) {
			def := ctrl.Definition()
			page.Nav = append(page.Nav, ui.NavItem{Key: def.Key, Title: def.Title, URL: sectionURL(def.Key)})
		}
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Page(c.Writer, page); err != nil {
		h.log.Errorw("render page failed", "title", page.Title, "error", err)
		_ = c.Error(err)
	}
}

// renderError shows a message page
func (h *Handler) renderError(c *gin.Context, status int, message, backURL string) {
	content, err := h.renderer.Fragment("error", gin.H{"Message": message, "BackURL": backURL})
	if err != nil {
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	h.writePage(c, status, ui.Page{Title: http.StatusText(status)}, content)
}

// statusOf picks the response status for an error shown on a page
func statusOf(err error) int {
	status, _ := apperrors.ToHTTPError(err)
	return status
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Root sends the user to their dashboard
// GET /
func (h *Handler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/dashboard")
}

type dashboardCard struct {
	Title string
	URL   string
	Count int
	Err   string
}

// Dashboard lists the sections the role may view with their record counts
// GET /dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	sess, _ := sessionFrom(c)
	ctx := c.Request.Context()

	visible := h.sections.Visible(sess.Role)
	cards := make([]dashboardCard, len(visible))

	var g errgroup.Group
	g.SetLimit(4)
	for i, ctrl := range visible {
		i, ctrl := i, ctrl
		def := ctrl.Definition()
		cards[i] = dashboardCard{Title: def.Title, URL: sectionURL(def.Key)}
		g.Go(func() error {
			count, err := ctrl.Count(ctx)
			if err != nil {
				cards[i].Err = apperrors.UserMessage(err)
				return nil
			}
			cards[i].Count = count
			return nil
		})
	}
	_ = g.Wait()

	content, err := h.renderer.Fragment("dashboard", gin.H{
		"Username":  sess.Username,
		"RoleLabel": sess.Role.Label(),
		"Cards":     cards,
	})
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, "internal server error", "/")
		return
	}
	h.writePage(c, http.StatusOK, ui.Page{Title: "Dashboard", Active: "dashboard"}, content)
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health returns the health status
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	status := http.StatusOK
	if err := database.Ping(ctx, h.db); err != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
		h.log.Warnw("health check: database unreachable", "error", err)
	}

	c.JSON(status, gin.H{
		"status":   http.StatusText(status),
		"service":  "misight",
		"version":  Version,
		"database": dbStatus,
	})
}
