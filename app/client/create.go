package client

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

type createBody struct {
	Name  string `json:"name" binding:"required,max=200"`
	TaxID string `json:"taxId" binding:"required,max=32"`
}

func ClientCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Name and tax ID are required",
			"requestID": requestID,
		})
		return
	}

	da := d.Access(c)

	id, err := da.CreateClient(c.Request.Context(), model.NewClient{
		UID:   userID,
		Name:  body.Name,
		TaxID: body.TaxID,
	})
	if err != nil {
		apierr.Abort(c, err, "create client")
		return
	}

	client, err := da.GetClient(c.Request.Context(), id)
	if err != nil {
		apierr.Abort(c, err, "fetch created client")
		return
	}

	c.JSON(http.StatusCreated, client)
}
