package session

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const cookieMaxAge = 60 * 60 * 24 * 7

type signInBody struct {
	Token string `json:"token" binding:"required"`
}

func setCookie(c *gin.Context, d *internal.Deps, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", d.SecureCookies, true)
}

// SignIn verifies an identity provider token, makes sure the user has a
// profile and leaves demo mode
func SignIn(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body signInBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Token is missing",
			"requestID": requestID,
		})
		return
	}

	s, err := d.Sessions.SignIn(c.Request.Context(), body.Token)
	if err != nil {
		if errors.Is(err, store.ErrBackendUnavailable) {
			apierr.Fail(c, http.StatusServiceUnavailable, "Sign in is not available, try demo mode")
			return
		}
		if errors.Is(err, store.ErrAuthRequired) {
			apierr.Fail(c, http.StatusUnauthorized, "Sign in failed, please try again")
			return
		}

		apierr.Abort(c, err, "sign in")
		return
	}

	setCookie(c, d, middleware.AuthCookie, body.Token, cookieMaxAge)
	setCookie(c, d, middleware.DemoCookie, "", -1)

	c.JSON(http.StatusOK, gin.H{
		"user": s.Profile,
		"demo": false,
	})
}

// EnterDemo switches the browser to the demo identity and the local store
func EnterDemo(c *gin.Context, d *internal.Deps) {
	s, err := d.Sessions.EnterDemo(c.Request.Context(), middleware.DemoPartition(c))
	if err != nil {
		apierr.Abort(c, err, "enter demo")
		return
	}

	setCookie(c, d, middleware.DemoCookie, s.Partition, cookieMaxAge)

	c.JSON(http.StatusOK, gin.H{
		"user": s.Profile,
		"demo": true,
	})
}

// SignOut clears both the identity and the demo cookie
func SignOut(c *gin.Context, d *internal.Deps) {
	d.Sessions.SignOut(middleware.State(c))

	setCookie(c, d, middleware.AuthCookie, "", -1)
	setCookie(c, d, middleware.DemoCookie, "", -1)

	c.Status(http.StatusNoContent)
}
