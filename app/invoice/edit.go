package invoice

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Only these fields can be changed by the owner, the PDF is tied to the
// upload saga
type editBody struct {
	ClientID    *string  `json:"clientId"`
	InvoiceDate *string  `json:"invoiceDate"`
	Amount      *float64 `json:"amount"`
}

func InvoiceEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	var body editBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	da := d.Access(c)

	inv, err := da.OwnedInvoice(ctx, c.Param("id"), userID)
	if err != nil {
		apierr.Abort(c, err, "fetch invoice")
		return
	}

	var patch model.InvoicePatch

	if body.ClientID != nil {
		if _, err := da.OwnedClient(ctx, *body.ClientID, userID); err != nil {
			apierr.Abort(c, err, "fetch client")
			return
		}
		patch.ClientID = body.ClientID
	}

	if body.InvoiceDate != nil {
		date, err := parseDate(*body.InvoiceDate, false)
		if err != nil || date == nil {
			apierr.Fail(c, http.StatusBadRequest, "Invalid invoice date")
			return
		}
		patch.InvoiceDate = date
	}

	patch.Amount = body.Amount

	if err := da.UpdateInvoice(ctx, inv.ID, patch); err != nil {
		apierr.Abort(c, err, "update invoice")
		return
	}

	updated, err := da.GetInvoice(ctx, inv.ID)
	if err != nil {
		apierr.Abort(c, err, "fetch updated invoice")
		return
	}

	c.JSON(http.StatusOK, updated)
}
