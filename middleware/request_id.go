package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tonylow1993/idphoto/utils"
)

const RequestIDKey = "request_id"

// RequestID 透传或生成 X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.GenerateID()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
