package api

import (
	stderrors "errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/ui"
	"github.com/gin-gonic/gin"
)

type loginView struct {
	Error    string
	Username string
	Next     string
}

// LoginPage shows the sign-in form
// GET /login
func (h *Handler) LoginPage(c *gin.Context) {
	if _, ok := sessionFrom(c); ok {
		c.Redirect(http.StatusFound, safeNext(c.Query("next")))
		return
	}
	h.renderLogin(c, http.StatusOK, loginView{Next: c.Query("next")})
}

// Login authenticates the credentials and sets the session cookie
// POST /login
func (h *Handler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := c.PostForm("next")

	if username == "" || password == "" {
		h.renderLogin(c, http.StatusBadRequest, loginView{Error: "Username and password are required", Username: username, Next: next})
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), username, password, c.ClientIP())
	if err != nil {
		var throttled *apperrors.TooManyRequestsError
		if stderrors.As(err, &throttled) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(throttled.RetryAfterSeconds))))
		}
		h.renderLogin(c, statusOf(err), loginView{Error: apperrors.UserMessage(err), Username: username, Next: next})
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, sess.Token, maxAge, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusSeeOther, safeNext(next))
}

// Logout revokes the session and clears the cookie
// POST /logout
func (h *Handler) Logout(c *gin.Context) {
	if sess, ok := sessionFrom(c); ok {
		if err := h.auth.Logout(c.Request.Context(), sess); err != nil {
			h.log.Errorw("logout failed", "username", sess.Username, "error", err)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func (h *Handler) renderLogin(c *gin.Context, status int, view loginView) {
	content, err := h.renderer.Fragment("login", view)
	if err != nil {
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	h.writePage(c, status, ui.Page{Title: "Sign in"}, content)
}

// safeNext only follows local paths after login
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}
