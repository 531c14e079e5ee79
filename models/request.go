package models

import "strings"

// LookupRequest is the payload for POST /api/carfax and POST /api/windowsticker.
type LookupRequest struct {
	// VIN identifies the vehicle. Required; not validated beyond presence.
	VIN string `json:"vin"`

	// Username and Password override the portal's configured credentials.
	// Each falls back to the configured value independently when empty.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// MaxAge, in milliseconds, allows serving a cached record younger than
	// this. Zero disables the cache for the request.
	MaxAge int `json:"maxAge,omitempty" binding:"omitempty,min=0"`
}

// Normalize trims surrounding whitespace from the VIN.
func (r *LookupRequest) Normalize() {
	r.VIN = strings.TrimSpace(r.VIN)
}
