package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns panics into a 500 JSON response. The stack trace is only
// returned to the client in development.
func Recovery(log *slog.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			stack := string(debug.Stack())
			log.Error("panic recovered", "error", rec, "path", c.Request.URL.Path, "stack", stack)

			body := gin.H{"error": fmt.Sprint(rec)}
			if development {
				body["stack"] = stack
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
