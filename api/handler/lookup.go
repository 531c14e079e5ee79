package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vehicledesc/cache"
	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/models"
	"github.com/use-agent/vehicledesc/scraper"
)

// fetchFunc runs one portal pipeline.
type fetchFunc[R any] func(ctx context.Context, vin string, override config.Credentials) (R, error)

// Carfax returns a handler for POST /api/carfax.
func Carfax(sc *scraper.Scraper, cc *cache.Cache[*models.VehicleHistoryRecord]) gin.HandlerFunc {
	return lookup(sc, scraper.CarfaxPortal.Name, sc.FetchCarfax, cc)
}

// WindowSticker returns a handler for POST /api/windowsticker.
func WindowSticker(sc *scraper.Scraper, cc *cache.Cache[*models.WindowStickerRecord]) gin.HandlerFunc {
	return lookup(sc, scraper.VelocityPortal.Name, sc.FetchWindowSticker, cc)
}

// lookup is the flow shared by both endpoints:
//  1. Parse & validate the request. A missing VIN never reaches the browser.
//  2. Resolve credentials, then serve from cache when the caller allows it.
//     Entries are keyed by the credentials that fetched them, so a request
//     with a different password never sees another account's record.
//  3. Run the pipeline under the request's context.
//  4. Store and return the record, or map the failure to a status.
func lookup[R any](sc *scraper.Scraper, portal string, fetch fetchFunc[R], cc *cache.Cache[R]) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResult{
				Error: "invalid request body: " + err.Error(),
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}
		req.Normalize()
		if req.VIN == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResult{
				Error: "VIN is required",
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}

		// ── 2. Credentials + cache lookup ──────────────────────────
		override := config.Credentials{Username: req.Username, Password: req.Password}
		creds, err := sc.Credentials(portal, override)
		if err != nil {
			respondError(c, req.VIN, err)
			return
		}
		cacheKey := cache.Key(portal, req.VIN, creds.Username, creds.Password)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				c.Header("X-Cache", "hit")
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 3. Pipeline ─────────────────────────────────────────────
		record, err := fetch(c.Request.Context(), req.VIN, creds)
		if err != nil {
			respondError(c, req.VIN, err)
			return
		}

		// ── 4. Cache store and respond ──────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, record)
			c.Header("X-Cache", "miss")
		}
		c.JSON(http.StatusOK, record)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, vin string, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, "lookup failed", err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), scrapeErr.ToResult(vin))
}

// mapErrorToStatus translates error codes to HTTP status codes. Every
// pipeline failure is a 500; only caller mistakes get a 4xx.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
