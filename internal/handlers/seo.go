package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// robotsTxt keeps every crawler out of the forum.
const robotsTxt = `User-agent: *
Disallow: /
`

// RobotsTxt serves /robots.txt.
func RobotsTxt(c *gin.Context) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, robotsTxt)
}
