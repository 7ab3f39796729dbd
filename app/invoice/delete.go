package invoice

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"net/http"

	"github.com/gin-gonic/gin"
)

func InvoiceDelete(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	if err := d.Access(c).DeleteInvoice(c.Request.Context(), c.Param("id"), userID); err != nil {
		apierr.Abort(c, err, "delete invoice")
		return
	}

	c.Status(http.StatusNoContent)
}
