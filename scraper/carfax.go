package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/models"
)

const carfaxReportBase = "https://www.carfax.com/api/vehicle-history/"

// CarfaxReportURL is the vehicle-history page for vin.
func CarfaxReportURL(vin string) string {
	return carfaxReportBase + url.PathEscape(vin)
}

// HistoryFlags are the yes/no indicators read off a vehicle-history report.
type HistoryFlags struct {
	OneOwner       bool
	NoAccidents    bool
	ServiceRecords bool
	PersonalUse    bool
}

// DetectHistoryFlags runs case-insensitive substring checks over the report
// content. Each flag is independent and defaults to false.
//
// PersonalUse only requires "personal" and "use" to each appear somewhere,
// not next to each other.
func DetectHistoryFlags(content string) HistoryFlags {
	c := strings.ToLower(content)
	return HistoryFlags{
		OneOwner:       strings.Contains(c, "1-owner") || strings.Contains(c, "one owner"),
		NoAccidents:    strings.Contains(c, "no accidents") || strings.Contains(c, "accident free"),
		ServiceRecords: strings.Contains(c, "service records") || strings.Contains(c, "maintenance records"),
		PersonalUse:    strings.Contains(c, "personal") && strings.Contains(c, "use"),
	}
}

// Apply copies the flags onto record.
func (f HistoryFlags) Apply(record *models.VehicleHistoryRecord) {
	record.OneOwner = f.OneOwner
	record.NoAccidents = f.NoAccidents
	record.ServiceRecords = f.ServiceRecords
	record.PersonalUse = f.PersonalUse
}

// FetchCarfax logs into the vehicle-history portal, opens the report for vin
// and derives the history flags from the rendered page. Empty fields of
// override fall back to the configured Carfax credentials.
func (s *Scraper) FetchCarfax(ctx context.Context, vin string, override config.Credentials) (*models.VehicleHistoryRecord, error) {
	creds, err := s.Credentials(CarfaxPortal.Name, override)
	if err != nil {
		return nil, err
	}

	var record *models.VehicleHistoryRecord
	err = s.withSession(ctx, CarfaxPortal.Name, vin, func(ctx context.Context, page Page) error {
		if err := s.login(ctx, page, CarfaxPortal, creds); err != nil {
			return err
		}

		if err := s.navigate(ctx, page, CarfaxReportURL(vin)); err != nil {
			return err
		}

		content, err := page.HTML()
		if err != nil {
			return categorizeError(err, models.ErrCodeNavigation, "failed to read report page")
		}

		record = models.NewVehicleHistoryRecord(vin, s.now())
		DetectHistoryFlags(content).Apply(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
