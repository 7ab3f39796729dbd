package invoice

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/pkg/validators"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shareBody struct {
	Email string `json:"email"`
}

// InvoiceShare mints a read-only link valid for 24 hours and optionally
// mails it to the client
func InvoiceShare(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	var body shareBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid request body",
				"requestID": requestID,
			})
			return
		}
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email != "" {
		if err := validators.EmailValidator(body.Email); err != nil {
			apierr.Fail(c, http.StatusBadRequest, err.Error())
			return
		}

		if d.Mailer == nil {
			apierr.Fail(c, http.StatusServiceUnavailable, "Sending mail isn't available, copy the link instead")
			return
		}
	}

	da := d.Access(c)

	inv, err := da.OwnedInvoice(ctx, c.Param("id"), userID)
	if err != nil {
		apierr.Abort(c, err, "fetch invoice")
		return
	}

	link, err := d.ShareLinks(c).Create(ctx, inv.ID)
	if err != nil {
		apierr.Abort(c, err, "create share link")
		return
	}

	url := strings.TrimRight(d.PublicURL, "/") + "/share/" + link.Token

	mailed := false
	if body.Email != "" {
		var from string
		if u, err := da.GetUser(ctx, userID); err == nil {
			from = u.DisplayName
		}

		if err := d.Mailer.Send(body.Email, from, url, link.ExpiresAt); err != nil {
			zap.L().Error("Failed to mail share link", zap.String("requestID", requestID), zap.Error(err))
		} else {
			mailed = true
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     link.Token,
		"url":       url,
		"expiresAt": link.ExpiresAt,
		"mailed":    mailed,
	})
}
