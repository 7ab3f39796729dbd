package user

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the profile of the caller together with its storage
// usage and client and invoice counts for the dashboard
func UserFetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)
	s := middleware.State(c)
	da := d.Access(c)
	ctx := c.Request.Context()

	u, err := da.GetUser(ctx, userID)
	if err != nil {
		// demo profiles are synthesized when the local store can't keep them
		if !(errors.Is(err, store.ErrNotFound) && s.Demo) {
			apierr.Abort(c, err, "fetch user profile")
			return
		}
		u = s.Profile
	}

	c.JSON(http.StatusOK, gin.H{
		"user": u,
		"demo": s.Demo,
		"stats": gin.H{
			"clients":      len(da.GetClients(ctx, userID)),
			"invoices":     len(da.GetInvoices(ctx, userID, model.InvoiceFilter{})),
			"storageUsed":  u.StorageUsed,
			"storageLimit": u.StorageLimit,
		},
	})
}
