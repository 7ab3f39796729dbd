package invoice

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InvoicePDF returns a short lived URL the browser can open or download the
// invoice PDF from
func InvoicePDF(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)
	da := d.Access(c)

	inv, err := da.OwnedInvoice(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		apierr.Abort(c, err, "fetch invoice")
		return
	}

	url, err := da.GetInvoicePDFURL(c.Request.Context(), userID, inv.PDFPath)
	if err != nil {
		apierr.Abort(c, err, "get invoice pdf url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
