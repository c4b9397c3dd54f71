package handlers

import (
	"net/http"

	"shutterbook/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest dependency snapshot. Any failing
// dependency turns the response into a 503.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	for _, healthy := range status.Dependencies {
		if !healthy {
			code = http.StatusServiceUnavailable
			state = "degraded"
			break
		}
	}
	c.JSON(code, gin.H{"status": state, "dependencies": status.Dependencies, "checkedAt": status.CheckedAt})
}
