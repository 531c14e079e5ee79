package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vehicledesc/models"
)

// ClientKey is the gin context key holding the authenticated API key. The
// rate limiter buckets by it when present.
const ClientKey = "api_key"

// Auth guards the lookup routes with API keys. Each lookup spends portal
// logins on the service's own accounts, so anonymous callers are refused
// whenever keys are configured.
//
// Keys are accepted from either header:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// Comparison is constant-time over key digests. Empty apiKeys leaves the
// routes open.
func Auth(apiKeys []string) gin.HandlerFunc {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	known := func(key string) bool {
		d := sha256.Sum256([]byte(key))
		match := 0
		for i := range digests {
			match |= subtle.ConstantTimeCompare(d[:], digests[i][:])
		}
		return match == 1
	}

	return func(c *gin.Context) {
		key := clientAPIKey(c.Request)
		switch {
		case key == "":
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
		case !known(key):
			unauthorized(c, "invalid API key")
		default:
			c.Set(ClientKey, key)
			c.Next()
		}
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResult{
		Error: msg,
		Code:  models.ErrCodeUnauthorized,
	})
}

// clientAPIKey reads X-API-Key, falling back to a bearer token.
func clientAPIKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
