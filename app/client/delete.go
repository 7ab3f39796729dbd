package client

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientDelete removes a client together with all of its invoices and their
// PDFs. Calling it again after a partial failure finishes the job.
func ClientDelete(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	if err := d.Access(c).DeleteClient(c.Request.Context(), c.Param("id"), userID); err != nil {
		apierr.Abort(c, err, "delete client")
		return
	}

	c.Status(http.StatusNoContent)
}
