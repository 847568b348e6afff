package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const pidKey = "valid_pid"

// RequireValidPID ensures the path param ":pid" is a valid int > 0,
// parses it once, and stashes it in the context so handlers don't
// re-parse it.
func RequireValidPID() gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
		if err != nil || pid <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid pid"})
			return
		}
		c.Set(pidKey, pid)
		c.Next()
	}
}

// PID returns the pid RequireValidPID validated and stashed.
func PID(c *gin.Context) int64 {
	return c.MustGet(pidKey).(int64)
}
