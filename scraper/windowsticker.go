package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/models"
)

// Selectors of the window-sticker lookup form and its result.
const (
	VINInputField   = "#vin-input"
	VINSubmitButton = "#submit-vin"
	VehicleInfo     = ".vehicle-info"
)

// VehicleDescriptor is the year/make/model headline of a window sticker.
type VehicleDescriptor struct {
	Year  string
	Make  string
	Model string
}

// ParseVehicleInfo reads the first line of the vehicle-info text as
// "<year> <make> <model...>". ok is false when the line has fewer than three
// whitespace-separated tokens.
func ParseVehicleInfo(text string) (desc VehicleDescriptor, ok bool) {
	firstLine, _, _ := strings.Cut(text, "\n")
	tokens := strings.Fields(firstLine)
	if len(tokens) < 3 {
		return VehicleDescriptor{}, false
	}
	return VehicleDescriptor{
		Year:  tokens[0],
		Make:  tokens[1],
		Model: strings.Join(tokens[2:], " "),
	}, true
}

// readVehicleInfo returns the parsed vehicle-info element when it exists and
// parses. Read failures count as absent.
func readVehicleInfo(page Page) (VehicleDescriptor, bool) {
	text, found, err := page.Text(VehicleInfo)
	if err != nil {
		slog.Debug("reading vehicle info failed", "error", err)
		return VehicleDescriptor{}, false
	}
	if !found {
		return VehicleDescriptor{}, false
	}
	return ParseVehicleInfo(text)
}

// FetchWindowSticker logs into the window-sticker portal, submits vin through
// its lookup form and reads year, make and model from the result. A missing
// or malformed result leaves those fields empty without failing the lookup.
// Empty fields of override fall back to the configured Velocity credentials.
func (s *Scraper) FetchWindowSticker(ctx context.Context, vin string, override config.Credentials) (*models.WindowStickerRecord, error) {
	creds, err := s.Credentials(VelocityPortal.Name, override)
	if err != nil {
		return nil, err
	}

	var record *models.WindowStickerRecord
	err = s.withSession(ctx, VelocityPortal.Name, vin, func(ctx context.Context, page Page) error {
		if err := s.login(ctx, page, VelocityPortal, creds); err != nil {
			return err
		}

		if err := s.waitFor(ctx, page, VINInputField, s.cfg.ElementTimeout); err != nil {
			return err
		}
		if err := page.Fill(VINInputField, vin); err != nil {
			return categorizeError(err, models.ErrCodeElementMissing, "failed to fill VIN")
		}
		if err := page.Click(VINSubmitButton); err != nil {
			return categorizeError(err, models.ErrCodeElementMissing, "failed to submit VIN")
		}

		if _, err := s.waitOptional(ctx, page, VehicleInfo, s.cfg.ResultTimeout); err != nil {
			return err
		}

		record = models.NewWindowStickerRecord(vin, s.now())
		if desc, ok := readVehicleInfo(page); ok {
			record.Year = desc.Year
			record.Make = desc.Make
			record.Model = desc.Model
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
