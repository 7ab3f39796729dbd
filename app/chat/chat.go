package chat

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/assistant"
	"bitwise74/invoice-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatBody struct {
	Messages []assistant.Message `json:"messages" binding:"required,min=1,max=50,dive"`
	// Page is the front-end route the user is on, e.g. /app/invoices
	Page string `json:"page"`
}

// ChatReply answers the last message of a conversation. The reply always
// carries some content, a fallback apology when the assistant failed.
func ChatReply(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid conversation",
			"requestID": requestID,
		})
		return
	}

	if d.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "The assistant isn't available right now",
			"content":   assistant.Fallback,
			"requestID": requestID,
		})
		return
	}

	s := middleware.State(c)
	info := assistant.BuildContext(body.Page, s != nil && s.Demo, s != nil && !s.Demo)

	reply, err := d.Assistant.Reply(c.Request.Context(), body.Messages, info)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "The assistant failed to answer",
			"content":   reply,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": reply})
}

// ChatContext returns the static part of the assistant's system prompt
func ChatContext(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"context": assistant.StaticContext()})
}
