package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const IdentityHeader = "X-User"

// Identity copies the edge-supplied user name into the request context.
// The value is opaque here; whoever terminates authentication owns it.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(IdentityHeader))
		if user != "" {
			c.Set("user", user)
		}
		c.Next()
	}
}
