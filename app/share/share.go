package share

import (
	"bitwise74/invoice-api/app/demo"
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/internal/store/local"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const goneMessage = "This link is invalid or has expired"

// ShareFetch shows a shared invoice to someone who isn't signed in. Unknown
// and expired tokens look the same.
func ShareFetch(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	link, da, err := d.ResolveShare(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.Fail(c, http.StatusNotFound, goneMessage)
			return
		}

		apierr.Abort(c, err, "resolve share link")
		return
	}

	inv, err := da.GetInvoice(ctx, link.InvoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.Fail(c, http.StatusNotFound, "This invoice no longer exists")
			return
		}

		apierr.Abort(c, err, "fetch shared invoice")
		return
	}

	var clientName string
	if client, err := da.GetClient(ctx, inv.ClientID); err == nil {
		clientName = client.Name
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice": gin.H{
			"id":            inv.ID,
			"invoiceDate":   inv.InvoiceDate,
			"amount":        inv.Amount,
			"clientName":    clientName,
			"uploadPending": inv.UploadPending(),
		},
		"expiresAt": link.ExpiresAt,
	})
}

// SharePDF sends the holder of a valid link to the invoice PDF
func SharePDF(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	link, da, err := d.ResolveShare(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.Fail(c, http.StatusNotFound, goneMessage)
			return
		}

		apierr.Abort(c, err, "resolve share link")
		return
	}

	inv, err := da.GetInvoice(ctx, link.InvoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.Fail(c, http.StatusNotFound, "This invoice no longer exists")
			return
		}

		apierr.Abort(c, err, "fetch shared invoice")
		return
	}

	if da.BackendName() == local.BackendName {
		if inv.UploadPending() {
			apierr.Abort(c, store.ErrUploadIncomplete, "serve shared pdf")
			return
		}

		demo.ServePDF(c, d.Demo.Get(link.Partition), inv.ID)
		return
	}

	url, err := da.SharedPDFURL(ctx, inv)
	if err != nil {
		apierr.Abort(c, err, "get shared pdf url")
		return
	}

	c.Redirect(http.StatusFound, url)
}
