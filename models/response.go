package models

import "time"

// VehicleHistoryRecord is the success response for POST /api/carfax.
type VehicleHistoryRecord struct {
	VIN       string    `json:"vin"`
	FetchedAt time.Time `json:"fetchedAt"`

	OneOwner       bool `json:"oneOwner"`
	NoAccidents    bool `json:"noAccidents"`
	ServiceRecords bool `json:"serviceRecords"`
	PersonalUse    bool `json:"personalUse"`

	// History is reserved for itemized events; it is never populated.
	History []HistoryEvent `json:"history"`
}

// HistoryEvent is a single entry of a vehicle history report.
type HistoryEvent struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewVehicleHistoryRecord returns a record with all flags false and an
// empty (non-nil) history.
func NewVehicleHistoryRecord(vin string, fetchedAt time.Time) *VehicleHistoryRecord {
	return &VehicleHistoryRecord{
		VIN:       vin,
		FetchedAt: fetchedAt,
		History:   []HistoryEvent{},
	}
}

// WindowStickerRecord is the success response for POST /api/windowsticker.
type WindowStickerRecord struct {
	VIN       string    `json:"vin"`
	FetchedAt time.Time `json:"fetchedAt"`

	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Trim  string `json:"trim"`

	Packages []string          `json:"packages"`
	Features []string          `json:"features"`
	MPG      map[string]string `json:"mpg"`
}

// NewWindowStickerRecord returns a record with empty fields and non-nil
// collections, so they encode as [] and {}.
func NewWindowStickerRecord(vin string, fetchedAt time.Time) *WindowStickerRecord {
	return &WindowStickerRecord{
		VIN:       vin,
		FetchedAt: fetchedAt,
		Packages:  []string{},
		Features:  []string{},
		MPG:       map[string]string{},
	}
}

// ErrorResult is returned in place of a record when a lookup fails.
type ErrorResult struct {
	VIN   string `json:"vin,omitempty"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the response for GET /.
type HealthResponse struct {
	Status         string    `json:"status"`
	Service        string    `json:"service"`
	Timestamp      time.Time `json:"timestamp"`
	Uptime         string    `json:"uptime"`
	ActiveSessions int       `json:"activeSessions"`
}
