package handlers

import "github.com/gin-gonic/gin"

// Ping is an unauthenticated liveness probe.
func Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}
