package middleware

import (
	"github.com/gin-gonic/gin"
)

// Authentication is a placeholder global middleware. It currently allows all requests.
// Tenant-scoped auth lands here once the identity service is wired in.
func Authentication(c *gin.Context) {
	c.Next()
}
