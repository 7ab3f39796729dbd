package billing

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/billing"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/middleware"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type checkoutBody struct {
	PlanID string `json:"planId" binding:"required"`
}

// BillingCheckout opens a Stripe checkout session for the caller
func BillingCheckout(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if d.Stripe == nil {
		apierr.Fail(c, http.StatusServiceUnavailable, "Billing isn't available right now")
		return
	}

	if middleware.State(c).Demo {
		apierr.Fail(c, http.StatusForbidden, "Plans can't be bought in demo mode")
		return
	}

	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Plan is missing",
			"requestID": requestID,
		})
		return
	}

	u, err := d.Access(c).GetUser(c.Request.Context(), userID)
	if err != nil {
		apierr.Abort(c, err, "fetch user profile")
		return
	}

	co, err := d.Stripe.Checkout(c.Request.Context(), u, body.PlanID)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownPlan) {
			apierr.Fail(c, http.StatusBadRequest, "Unknown plan")
			return
		}

		apierr.Abort(c, err, "create checkout session")
		return
	}

	c.JSON(http.StatusOK, co)
}

// BillingWebhook receives Stripe events. Plan changes only ever apply to the
// managed backend.
func BillingWebhook(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if d.Stripe == nil {
		apierr.Fail(c, http.StatusServiceUnavailable, "Billing isn't available right now")
		return
	}

	if !d.Factory.ManagedConfigured() {
		apierr.Fail(c, http.StatusServiceUnavailable, "Billing needs a managed backend")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apierr.Fail(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	err = d.Stripe.HandleWebhook(c.Request.Context(), d.Factory.For(store.ModeManaged), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			zap.L().Warn("Rejected stripe webhook", zap.String("requestID", requestID), zap.Error(err))
			apierr.Fail(c, http.StatusBadRequest, "Invalid signature")
			return
		}

		apierr.Abort(c, err, "handle stripe webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
