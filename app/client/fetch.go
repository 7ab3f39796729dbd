package client

import (
	"bitwise74/invoice-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientFetch lists the caller's clients, newest first
func ClientFetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	c.JSON(http.StatusOK, d.Access(c).GetClients(c.Request.Context(), userID))
}
