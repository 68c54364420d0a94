package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/coderunner-dash/internal/response"
	"github.com/stemsi/coderunner-dash/internal/session"
)

// ContextKeySession is the Gin context key for the dashboard session.
const ContextKeySession = "dashboard_session"

// RequireSession validates the bearer token and resolves the live dashboard
// session. A valid token whose session was evicted maps to SESSION_EXPIRED:
// the credentials are gone and the user must sign in again.
func RequireSession(secret string, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		id, err := session.ParseToken(secret, tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		sess, ok := store.Get(id)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionExpired)
			return
		}

		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// RequireSessionQuery is the WebSocket variant: the token arrives as the
// ?token= query parameter because upgrade requests cannot set headers.
func RequireSessionQuery(secret string, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		id, err := session.ParseToken(secret, tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		sess, ok := store.Get(id)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionExpired)
			return
		}

		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// GetSession returns the dashboard session attached by RequireSession, or
// nil if the middleware did not run.
func GetSession(c *gin.Context) *session.Session {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
