package user

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/billing"
	"bitwise74/invoice-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type giftCodeBody struct {
	Code string `json:"code" binding:"required"`
}

// UserRedeemGiftCode starts a trial when the code matches one of the
// configured gift codes
func UserRedeemGiftCode(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if middleware.State(c).Demo {
		apierr.Fail(c, http.StatusForbidden, "Gift codes can't be used in demo mode")
		return
	}

	var body giftCodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Gift code is missing",
			"requestID": requestID,
		})
		return
	}

	u, err := d.Gifts.Redeem(c.Request.Context(), d.Access(c), userID, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidGiftCode):
			apierr.Fail(c, http.StatusBadRequest, "Invalid gift code")
		case errors.Is(err, billing.ErrGiftCodeUsed):
			apierr.Fail(c, http.StatusConflict, "You already redeemed a gift code")
		default:
			apierr.Abort(c, err, "redeem gift code")
		}
		return
	}

	c.JSON(http.StatusOK, u)
}
