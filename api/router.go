package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vehicledesc/api/handler"
	"github.com/use-agent/vehicledesc/api/middleware"
	"github.com/use-agent/vehicledesc/cache"
	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/metrics"
	"github.com/use-agent/vehicledesc/models"
	"github.com/use-agent/vehicledesc/scraper"
)

// Caches holds the per-endpoint record caches. Nil fields disable caching.
type Caches struct {
	Carfax        *cache.Cache[*models.VehicleHistoryRecord]
	WindowSticker *cache.Cache[*models.WindowStickerRecord]
}

// NewCaches creates both caches sized from cfg.
func NewCaches(cfg config.CacheConfig) Caches {
	return Caches{
		Carfax:        cache.New[*models.VehicleHistoryRecord](cfg.MaxEntries),
		WindowSticker: cache.New[*models.WindowStickerRecord](cfg.MaxEntries),
	}
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if keys configured) → RateLimit
//
// Health and metrics stay outside auth so health checks and scrapers always work.
// m may be nil.
func NewRouter(sc *scraper.Scraper, cfg *config.Config, caches Caches, m *metrics.Metrics, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS))

	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		slog.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.GET("/", handler.Health(sc, startTime))
	if cfg.Metrics.Enabled && m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	protected := r.Group("/api")
	if len(cfg.Auth.APIKeys) > 0 {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/carfax", handler.Carfax(sc, caches.Carfax))
	protected.POST("/windowsticker", handler.WindowSticker(sc, caches.WindowSticker))

	return r
}
