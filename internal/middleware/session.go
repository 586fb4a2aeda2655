package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patientor/internal/session"
	"github.com/jwalitptl/patientor/internal/store"
)

const (
	ContextStore          = "session_store"
	ContextSessionCreated = "session_created"
)

// Session binds the browser's session store to the request, starting a new
// session when the cookie is missing, invalid or expired.
func Session(mgr *session.Manager) gin.HandlerFunc {
	cfg := mgr.Config()
	return func(c *gin.Context) {
		token, _ := c.Cookie(cfg.CookieName)

		s, newToken, created, err := mgr.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Error().Err(err).Str("request_id", c.GetString(ContextRequestID)).Msg("Failed to start session")
			abortWithError(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, newToken, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
		}

		c.Set(ContextStore, s)
		c.Set(ContextSessionCreated, created)
		c.Next()
	}
}

// Store returns the session store bound by Session.
func Store(c *gin.Context) (*store.Store, bool) {
	v, ok := c.Get(ContextStore)
	if !ok {
		return nil, false
	}
	s, ok := v.(*store.Store)
	return s, ok
}

// SessionCreated reports whether Session started the session on this request.
func SessionCreated(c *gin.Context) bool {
	return c.GetBool(ContextSessionCreated)
}
