package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"docbridge/internal/config"
	"docbridge/internal/models"
	"docbridge/internal/portal/auth"
	"docbridge/internal/portal/guard"
	"docbridge/internal/portal/handlers"
)

// browserSession ties each request to its browser's auth state machine. A
// browser without a sid cookie gets one; the registry bootstraps the machine
// from the session store the first time a sid shows up after a restart.
func browserSession(cfg config.PortalConfig, registry *auth.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || sid == "" {
			sid = ksuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, sid, int(cfg.SessionTTL.Seconds()), "/", "", cfg.CookieSecure, true)
		}

		handlers.SetMachine(c, registry.Machine(c.Request.Context(), sid))
		c.Next()
	}
}

// RequireRole applies the route guard ahead of a role-restricted page.
// Redirects are invisible to the user: no error page, no message.
func RequireRole(required models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Decide(handlers.Machine(c).State(), required)
		if !decision.Render {
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}
