package demo

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/store/local"
	"bitwise74/invoice-api/pkg/middleware"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DemoPDF streams an invoice PDF kept in the local store. Its URLs are what
// the local backend hands out instead of presigned links.
func DemoPDF(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)
	da := d.Access(c)

	if da.BackendName() != local.BackendName {
		apierr.Fail(c, http.StatusNotFound, "Not found")
		return
	}

	inv, err := da.OwnedInvoice(c.Request.Context(), c.Param("invoiceID"), userID)
	if err != nil {
		apierr.Abort(c, err, "fetch invoice")
		return
	}

	ServePDF(c, d.Demo.Get(middleware.State(c).Partition), inv.ID)
}

// ServePDF writes the locally stored PDF of invoiceID inline
func ServePDF(c *gin.Context, s *local.Store, invoiceID string) {
	f, err := s.OpenPayload(invoiceID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			apierr.Fail(c, http.StatusNotFound, "Not found")
			return
		}

		apierr.Abort(c, err, "open local pdf")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		apierr.Abort(c, err, "stat local pdf")
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+invoiceID+`.pdf"`)
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", f, nil)
}
