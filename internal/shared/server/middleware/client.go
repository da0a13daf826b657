package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const clientIDKey = "clientId"

// ClientIDHeader optionally identifies the calling client for rate limiting and logs.
const ClientIDHeader = "X-Client-Id"

// ClientID resolves the caller identity from ClientIDHeader, falling back to the client IP.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(ClientIDHeader))
		if len(id) > 128 {
			id = id[:128]
		}
		if id == "" {
			id = "ip:" + c.ClientIP()
		}
		c.Set(clientIDKey, id)
		c.Next()
	}
}

// ClientIDFromContext returns the identity stored by ClientID.
func ClientIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(clientIDKey)
}
