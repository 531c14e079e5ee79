package scraper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/metrics"
	"github.com/use-agent/vehicledesc/models"
	"github.com/use-agent/vehicledesc/scraper"
	"github.com/use-agent/vehicledesc/scraper/scrapertest"
)

const testVIN = "1FTFW1ET5BFC12345"

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		PageLoadTimeout: 200 * time.Millisecond,
		ElementTimeout:  200 * time.Millisecond,
		LoginTimeout:    200 * time.Millisecond,
		ResultTimeout:   200 * time.Millisecond,
		RequestTimeout:  5 * time.Second,
	}
}

func testPortals() config.PortalsConfig {
	return config.PortalsConfig{
		Carfax:   config.Credentials{Username: "carfax-user", Password: "carfax-pass"},
		Velocity: config.Credentials{Username: "velocity-user", Password: "velocity-pass"},
	}
}

func newScraper(l scraper.Launcher) *scraper.Scraper {
	return scraper.NewScraper(l, testScraperConfig(), testPortals(), metrics.New())
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, code, scrapeErr.Code)
}

func TestFetchCarfax_ScenarioA(t *testing.T) {
	report := `<html><body><h2>One Owner</h2><p>No Accidents Reported</p></body></html>`
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, report))

	record, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	require.NoError(t, err)

	assert.Equal(t, testVIN, record.VIN)
	assert.False(t, record.FetchedAt.IsZero())
	assert.True(t, record.OneOwner)
	assert.True(t, record.NoAccidents)
	assert.False(t, record.ServiceRecords)
	assert.False(t, record.PersonalUse)
	assert.NotNil(t, record.History)
	assert.Empty(t, record.History)

	assert.Equal(t, 1, l.Launches())
	assert.Equal(t, 1, l.Closes())
}

func TestFetchCarfax_LoginSteps(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, "<html><body></body></html>"))

	_, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{Password: "override-pass"})
	require.NoError(t, err)

	page := l.Pages()[0]
	user, _ := page.Filled("#username")
	pass, _ := page.Filled("#password")
	assert.Equal(t, "carfax-user", user, "empty override falls back to the default username")
	assert.Equal(t, "override-pass", pass)
	assert.Equal(t, []string{"button[type='submit']"}, page.Clicked())
	assert.Equal(t, []string{
		scraper.CarfaxPortal.LoginURL,
		scrapertest.CarfaxDashboardURL,
		scraper.CarfaxReportURL(testVIN),
	}, page.Visited())
}

func TestFetchCarfax_MissingCredentialsNeverLaunches(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, ""))
	s := scraper.NewScraper(l, testScraperConfig(), config.PortalsConfig{}, nil)

	_, err := s.FetchCarfax(context.Background(), testVIN, config.Credentials{Username: "only-user"})
	requireCode(t, err, models.ErrCodeInvalidInput)
	assert.Equal(t, 0, l.Launches())
}

func TestFetchCarfax_LaunchFailure(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, ""))
	l.Err = errors.New(`exec: "/usr/bin/google-chrome": file does not exist`)

	record, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	assert.Nil(t, record)
	requireCode(t, err, models.ErrCodeBrowserLaunch)
	assert.Contains(t, err.Error(), "file does not exist")
	assert.Equal(t, 1, l.Launches())
	assert.Equal(t, 0, l.Closes())
}

func TestFetchCarfax_UsernameFieldNeverAppears(t *testing.T) {
	site := scrapertest.CarfaxSite(testVIN, "")
	site.Pages[scraper.CarfaxPortal.LoginURL] = `<html><body>Checking your browser...</body></html>`
	l := scrapertest.NewLauncher(site)

	_, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeElementTimeout)
	assert.Equal(t, 1, l.Closes())
}

func TestFetchCarfax_MissingPasswordField(t *testing.T) {
	site := scrapertest.CarfaxSite(testVIN, "")
	site.Pages[scraper.CarfaxPortal.LoginURL] = `<html><body><input id="username"><button type="submit">Next</button></body></html>`
	l := scrapertest.NewLauncher(site)

	_, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeElementMissing)
	assert.Equal(t, 1, l.Closes())
}

func TestFetchCarfax_RejectedLogin(t *testing.T) {
	site := scrapertest.CarfaxSite(testVIN, "")
	delete(site.Transitions, scraper.CarfaxPortal.SubmitButton)
	l := scrapertest.NewLauncher(site)

	_, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeLoginFailed)
	assert.Equal(t, 1, l.Closes())
}

func TestFetchCarfax_PageNeverReady(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, ""))
	l.Configure = func(p *scrapertest.Page) { p.NotReady = true }

	_, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeNavigation)
	assert.Equal(t, 1, l.Closes())
}

func TestFetchCarfax_ExtractionErrorStillTearsDown(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, ""))
	l.Configure = func(p *scrapertest.Page) { p.HTMLErr = errors.New("target closed") }

	_, err := newScraper(l).FetchCarfax(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeNavigation)
	assert.Equal(t, 1, l.Launches())
	assert.Equal(t, 1, l.Closes())
	assert.Equal(t, 1, l.Pages()[0].CloseCount())
}

func TestFetchCarfax_PanicIsRecovered(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, ""))
	l.Configure = func(p *scrapertest.Page) { p.PanicOn = "#password" }

	s := newScraper(l)
	_, err := s.FetchCarfax(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeInternal)
	assert.Equal(t, 1, l.Closes())
	assert.Equal(t, 0, s.ActiveSessions())
}

func TestFetchCarfax_CanceledContext(t *testing.T) {
	l := scrapertest.NewLauncher(scrapertest.CarfaxSite(testVIN, ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScraper(l).FetchCarfax(ctx, testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeTimeout)
	assert.Equal(t, 0, l.Closes())
}

func TestFetchWindowSticker_ScenarioB(t *testing.T) {
	site := scrapertest.VelocitySite(scrapertest.VehicleInfoHTML("2024 Ford F-150 XLT\nMore text"))
	l := scrapertest.NewLauncher(site)

	record, err := newScraper(l).FetchWindowSticker(context.Background(), testVIN, config.Credentials{})
	require.NoError(t, err)

	assert.Equal(t, testVIN, record.VIN)
	assert.Equal(t, "2024", record.Year)
	assert.Equal(t, "Ford", record.Make)
	assert.Equal(t, "F-150 XLT", record.Model)
	assert.Empty(t, record.Trim)
	assert.NotNil(t, record.Packages)
	assert.NotNil(t, record.Features)
	assert.NotNil(t, record.MPG)

	page := l.Pages()[0]
	user, _ := page.Filled("[name='username']")
	vin, _ := page.Filled(scraper.VINInputField)
	assert.Equal(t, "velocity-user", user)
	assert.Equal(t, testVIN, vin)
	assert.Equal(t, []string{"button[type='submit']", scraper.VINSubmitButton}, page.Clicked())
	assert.Equal(t, 1, l.Closes())
}

func TestFetchWindowSticker_ScenarioC_NoVehicleInfo(t *testing.T) {
	site := scrapertest.VelocitySite(`<html><body><p>No sticker found</p></body></html>`)
	l := scrapertest.NewLauncher(site)

	record, err := newScraper(l).FetchWindowSticker(context.Background(), testVIN, config.Credentials{})
	require.NoError(t, err)

	assert.Empty(t, record.Year)
	assert.Empty(t, record.Make)
	assert.Empty(t, record.Model)
	assert.Equal(t, 1, l.Closes())
}

func TestFetchWindowSticker_TooFewTokens(t *testing.T) {
	site := scrapertest.VelocitySite(scrapertest.VehicleInfoHTML("2024 Ford"))
	l := scrapertest.NewLauncher(site)

	record, err := newScraper(l).FetchWindowSticker(context.Background(), testVIN, config.Credentials{})
	require.NoError(t, err)
	assert.Empty(t, record.Year)
	assert.Empty(t, record.Model)
}

func TestFetchWindowSticker_VINInputMissing(t *testing.T) {
	site := scrapertest.VelocitySite("")
	site.Pages[scrapertest.VelocityLookupURL] = `<html><body>Subscription expired</body></html>`
	l := scrapertest.NewLauncher(site)

	_, err := newScraper(l).FetchWindowSticker(context.Background(), testVIN, config.Credentials{})
	requireCode(t, err, models.ErrCodeElementTimeout)
	assert.Equal(t, 1, l.Closes())
}

func TestConcurrentLookupsUseSeparateSessions(t *testing.T) {
	site := scrapertest.CarfaxSite(testVIN, "<html><body>one owner</body></html>")
	l := scrapertest.NewLauncher(site)
	s := newScraper(l)

	const n = 4
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.FetchCarfax(context.Background(), testVIN, config.Credentials{})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, n, l.Launches())
	assert.Equal(t, n, l.Closes())
	assert.Len(t, l.Pages(), n)
	assert.Equal(t, 0, s.ActiveSessions())
}

func TestCredentials(t *testing.T) {
	s := newScraper(scrapertest.NewLauncher(scrapertest.Site{}))

	creds, err := s.Credentials(scraper.CarfaxPortal.Name, config.Credentials{Password: "other"})
	require.NoError(t, err)
	assert.Equal(t, config.Credentials{Username: "carfax-user", Password: "other"}, creds)

	creds, err = s.Credentials(scraper.VelocityPortal.Name, config.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, testPortals().Velocity, creds)

	_, err = s.Credentials("autocheck", config.Credentials{Username: "u", Password: "p"})
	requireCode(t, err, models.ErrCodeInvalidInput)
}
