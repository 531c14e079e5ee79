package scrapertest

import (
	"fmt"

	"github.com/use-agent/vehicledesc/scraper"
)

// Post-login landing pages of the fake portals.
const (
	CarfaxDashboardURL = "https://www.carfax.com/dashboard"
	VelocityLookupURL  = "https://app.velocityautomotive.com/windowsticker/lookup"
	VelocityResultURL  = "https://app.velocityautomotive.com/windowsticker/result"
)

const carfaxLogin = `<html><body>
<form action="/u/login" method="post">
  <input id="username" name="username" type="text">
  <input id="password" name="password" type="password">
  <button type="submit">Continue</button>
</form>
</body></html>`

const velocityLogin = `<html><body>
<form method="post">
  <input name="username" type="email">
  <input name="password" type="password">
  <button type="submit">Sign in</button>
</form>
</body></html>`

const velocityLookup = `<html><body>
<input id="vin-input" type="text">
<button id="submit-vin">Get sticker</button>
</body></html>`

// CarfaxSite serves the Carfax login flow and reportHTML as the report for vin.
func CarfaxSite(vin, reportHTML string) Site {
	return Site{
		Pages: map[string]string{
			scraper.CarfaxPortal.LoginURL: carfaxLogin,
			CarfaxDashboardURL:            `<html><body><h1>My Account</h1></body></html>`,
			scraper.CarfaxReportURL(vin):  reportHTML,
		},
		Transitions: map[string]string{
			scraper.CarfaxPortal.SubmitButton: CarfaxDashboardURL,
		},
	}
}

// VelocitySite serves the Velocity login and lookup flow, with resultHTML as
// the page shown after the VIN is submitted.
func VelocitySite(resultHTML string) Site {
	return Site{
		Pages: map[string]string{
			scraper.VelocityPortal.LoginURL: velocityLogin,
			VelocityLookupURL:               velocityLookup,
			VelocityResultURL:               resultHTML,
		},
		Transitions: map[string]string{
			scraper.VelocityPortal.SubmitButton: VelocityLookupURL,
			scraper.VINSubmitButton:             VelocityResultURL,
		},
	}
}

// VehicleInfoHTML renders a result page whose vehicle-info element holds text.
func VehicleInfoHTML(text string) string {
	return fmt.Sprintf(`<html><body><div class="vehicle-info">%s</div></body></html>`, text)
}
