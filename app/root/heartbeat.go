package root

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/store"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat tells the front-end whether a managed backend is behind this
// instance, so it can offer sign-in or go straight to demo mode
func Heartbeat(c *gin.Context, d *internal.Deps) {
	backend := "local"
	if d.Factory.ManagedConfigured() {
		backend = store.ModeManaged.String()
	}

	c.Header("X-Backend", backend)
	c.Status(http.StatusOK)
}
