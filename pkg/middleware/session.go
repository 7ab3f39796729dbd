package middleware

import (
	"bitwise74/invoice-api/internal/session"
	"bitwise74/invoice-api/internal/store"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AuthCookie = "auth_token"
	DemoCookie = "demo_mode"

	stateKey = "session"
)

// SessionToken returns the identity token from the auth cookie, or from a
// bearer Authorization header
func SessionToken(c *gin.Context) string {
	if tok, err := c.Cookie(AuthCookie); err == nil && tok != "" {
		return tok
	}

	h := c.GetHeader("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}

	return ""
}

// DemoPartition returns the demo partition carried by the demo cookie, or
// an empty string when the client isn't in demo mode
func DemoPartition(c *gin.Context) string {
	v, err := c.Cookie(DemoCookie)
	if err != nil || !session.ValidDemoPartition(v) {
		return ""
	}
	return v
}

// State returns the session resolved by the session middleware or nil
func State(c *gin.Context) *session.State {
	v, ok := c.Get(stateKey)
	if !ok {
		return nil
	}

	s, _ := v.(*session.State)
	return s
}

func SetState(c *gin.Context, s *session.State) {
	c.Set(stateKey, s)
	c.Set("userID", s.Identity.UID)
}

// NewSessionMiddleware resolves who is calling. With required set the
// request is rejected when nobody is signed in, otherwise it continues
// anonymously.
func NewSessionMiddleware(a *session.Adapter, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		s, err := a.Resolve(c.Request.Context(), SessionToken(c), DemoPartition(c))
		if err == nil {
			SetState(c, s)
			c.Next()
			return
		}

		if !required {
			c.Next()
			return
		}

		switch {
		case errors.Is(err, store.ErrAuthRequired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Please sign in to continue",
				"requestID": requestID,
			})
		case errors.Is(err, store.ErrBackendUnavailable):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":     "Sign in is not available, try demo mode",
				"requestID": requestID,
			})
		default:
			zap.L().Error("Failed to resolve session", zap.Error(err), zap.String("requestID", requestID))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})
		}
	}
}
