package invoice

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InvoiceFetch lists the caller's invoices. Every query parameter is an
// optional filter: clientId, startDate, endDate and a free text query.
func InvoiceFetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	start, err := parseDate(c.Query("startDate"), false)
	if err != nil {
		apierr.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	end, err := parseDate(c.Query("endDate"), true)
	if err != nil {
		apierr.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if start != nil && end != nil && end.Before(*start) {
		apierr.Fail(c, http.StatusBadRequest, "endDate is before startDate")
		return
	}

	invoices := d.Access(c).GetInvoices(c.Request.Context(), userID, model.InvoiceFilter{
		ClientID:    c.Query("clientId"),
		StartDate:   start,
		EndDate:     end,
		SearchQuery: c.Query("query"),
	})

	c.JSON(http.StatusOK, invoices)
}

// InvoiceFetchOne returns an invoice together with its client
func InvoiceFetchOne(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)
	da := d.Access(c)

	inv, err := da.OwnedInvoice(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		apierr.Abort(c, err, "fetch invoice")
		return
	}

	// the client is optional, it may be mid deletion
	client, _ := da.GetClient(c.Request.Context(), inv.ClientID)

	c.JSON(http.StatusOK, gin.H{
		"invoice":       inv,
		"client":        client,
		"uploadPending": inv.UploadPending(),
	})
}
