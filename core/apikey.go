package core

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// APIKeyRequired gates a route on a shared secret header. An empty key disables the check.
// It is an additional gate only: the caller's identity still comes from the session.
func APIKeyRequired(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(apiKeyHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			log.Printf("[apikey] rejected %s %s ip=%s present=%t", c.Request.Method, c.Request.URL.Path, c.ClientIP(), got != "")
			abortWithError(c, http.StatusForbidden, codeForbidden, "invalid api key")
			return
		}
		c.Next()
	}
}
