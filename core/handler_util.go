package core

import "github.com/gin-gonic/gin"

// Error codes carried in the JSON error envelope.
const (
	codeForbidden   = "FORBIDDEN"
	codeRateLimited = "RATE_LIMITED"
	codeInternal    = "INTERNAL_SERVER_ERROR"
)

// respondError writes the {"error": {"code", "message"}} envelope used for every
// non-page failure: origin, CSRF and API-key rejections, rate limiting, session faults.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// abortWithError writes the envelope and stops the handler chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	respondError(c, status, code, message)
	c.Abort()
}
