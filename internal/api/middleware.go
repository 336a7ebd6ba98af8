package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/backend"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/section"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxController   = "controller"
	ctxPermission   = "permission"
)

// RequestIDMiddleware tags every request with a ULID, reusing the caller's id when sent
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxRequestID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Errorw("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warnw("request", fields...)
		default:
			log.Infow("request", fields...)
		}
	}
}

// SessionMiddleware resolves the session cookie. An invalid or revoked token clears the
// cookie; the request continues without a session.
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := h.auth.Resolve(c.Request.Context(), token)
		if err != nil {
			h.clearSessionCookie(c)
			c.Next()
			return
		}

		ctx := auth.WithSession(c.Request.Context(), sess)
		ctx = backend.WithActor(ctx, sess.Username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSessionMiddleware sends anonymous page requests to the login page
func (h *Handler) RequireSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionFrom(c); ok {
			c.Next()
			return
		}
		if c.Request.Method == http.MethodGet {
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		} else {
			c.Redirect(http.StatusSeeOther, "/login")
		}
		c.Abort()
	}
}

// SectionMiddleware resolves :section and checks the session's role may perform action on it
func (h *Handler) SectionMiddleware(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := sessionFrom(c)
		ctrl, ok := h.sections.Get(c.Param("section"))
		if !ok {
			h.renderError(c, http.StatusNotFound, "Section not found", "/dashboard")
			c.Abort()
			return
		}

		policy := h.sections.Policy()
		key := ctrl.Definition().Key
		if !policy.CheckPermission(sess.Role, key, action) {
			h.log.Warnw("permission denied", "username", sess.Username, "role", sess.Role, "section", key, "action", action)
			denied := apperrors.NewPermissionDeniedError(string(action), key)
			h.renderError(c, denied.HTTPStatus(), "You do not have permission to do that", "/dashboard")
			c.Abort()
			return
		}

		c.Set(ctxController, ctrl)
		c.Set(ctxPermission, policy.GetUserPermission(sess.Role, key))
		c.Next()
	}
}

func sessionFrom(c *gin.Context) (*auth.Session, bool) {
	return auth.FromContext(c.Request.Context())
}

func controllerFrom(c *gin.Context) *section.Controller {
	return c.MustGet(ctxController).(*section.Controller)
}

func permissionFrom(c *gin.Context) auth.UserPermission {
	return c.MustGet(ctxPermission).(auth.UserPermission)
}
