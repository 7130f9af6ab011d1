package handlers

import (
	"errors"
	"net/http"

	"nsreddit/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like the current session
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	sess := middleware.CurrentSession(c)
	if sess.Authenticated() {
		obj["CurrentUser"] = sess.User
	}
	obj["InviteToken"] = sess.InviteToken
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// HTMX Redirect helper
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK) // HTMX handles the redirect on client side via header
}

// redirectToAuth sends a signed-out visitor to the sign-in page, by header
// for HTMX and fetch callers and by a plain redirect otherwise.
func redirectToAuth(c *gin.Context) {
	if c.GetHeader("HX-Request") != "" || c.GetHeader("Accept") == "application/json" {
		HtmxRedirect(c, "/auth")
		return
	}
	c.Redirect(http.StatusSeeOther, "/auth")
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// jsonError writes the {error} body every API route answers with.
func jsonError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// confirmed reports whether a destructive form carried its confirm flag.
func confirmed(c *gin.Context) bool {
	return c.PostForm("confirm") == "yes"
}

// formOverhead is the room left for multipart headers and text fields on
// top of an upload's size limit.
const formOverhead = 1 << 20

// limitBody caps the request body so oversized uploads fail while parsing
// instead of being spooled to disk.
func limitBody(c *gin.Context, limit int64) {
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+formOverhead)
	}
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
