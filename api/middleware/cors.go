package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/vehicledesc/config"
)

var corsAllowHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Accept-Encoding",
	"Authorization",
	"Accept",
	"Origin",
	"Cache-Control",
	"X-Requested-With",
	"X-API-Key",
}

// CORS creates the cross-origin middleware. A "*" entry in AllowOrigins
// allows every origin; credentials are only allowed with an explicit list.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: corsAllowHeaders,
		MaxAge:       cfg.MaxAge,
	}
	if cc.MaxAge <= 0 {
		cc.MaxAge = 12 * time.Hour
	}

	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowOrigins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}
