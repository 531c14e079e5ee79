package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vehicledesc/models"
	"github.com/use-agent/vehicledesc/scraper"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "vehicle-descriptions"

// Health returns a handler for GET /.
func Health(sc *scraper.Scraper, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         "healthy",
			Service:        ServiceName,
			Timestamp:      time.Now().UTC(),
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			ActiveSessions: sc.ActiveSessions(),
		})
	}
}
