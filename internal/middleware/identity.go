package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	accountIDHeader = "X-Account-ID"

	// accountIDKey is the gin context key the handlers read.
	accountIDKey = "accountID"
)

// Identity resolves the calling account from the X-Account-ID header. The
// header is trusted: authentication happens at the gateway in front of this
// service, which strips and re-sets it.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetHeader(accountIDHeader)
		if accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + accountIDHeader + " header"})
			return
		}
		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// ActorID returns the account id resolved by Identity.
func ActorID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}
