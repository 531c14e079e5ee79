package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/models"
)

// Portal describes the login form of a third-party site.
type Portal struct {
	Name          string
	LoginURL      string
	UsernameField string
	PasswordField string
	SubmitButton  string
}

// CarfaxPortal is the vehicle-history provider.
var CarfaxPortal = Portal{
	Name:          "carfax",
	LoginURL:      "https://auth.carfax.com/u/login",
	UsernameField: "#username",
	PasswordField: "#password",
	SubmitButton:  "button[type='submit']",
}

// VelocityPortal is the window-sticker provider.
var VelocityPortal = Portal{
	Name:          "windowsticker",
	LoginURL:      "https://app.velocityautomotive.com/windowsticker",
	UsernameField: "[name='username']",
	PasswordField: "[name='password']",
	SubmitButton:  "button[type='submit']",
}

// login drives the portal's login form:
//
//  1. Navigate to the login page and wait for the document to be ready.
//  2. Wait for the username field (bounded by ElementTimeout).
//  3. Fill username and password, click submit. Neither the password field
//     nor the submit control is waited for.
//  4. Wait for the login form to go away (bounded by LoginTimeout). A form
//     that is still there means the portal rejected the credentials.
func (s *Scraper) login(ctx context.Context, page Page, portal Portal, creds config.Credentials) error {
	if err := s.navigate(ctx, page, portal.LoginURL); err != nil {
		return err
	}

	if err := s.waitFor(ctx, page, portal.UsernameField, s.cfg.ElementTimeout); err != nil {
		return err
	}

	if err := page.Fill(portal.UsernameField, creds.Username); err != nil {
		return categorizeError(err, models.ErrCodeElementMissing, "failed to fill username")
	}
	if err := page.Fill(portal.PasswordField, creds.Password); err != nil {
		return categorizeError(err, models.ErrCodeElementMissing, "failed to fill password")
	}
	if err := page.Click(portal.SubmitButton); err != nil {
		return categorizeError(err, models.ErrCodeElementMissing, "failed to submit login form")
	}

	err := poll(ctx, s.cfg.LoginTimeout, func() (bool, error) {
		present, err := page.Has(portal.UsernameField)
		return !present, err
	})
	switch {
	case errors.Is(err, errPollExpired):
		return models.NewScrapeError(models.ErrCodeLoginFailed,
			fmt.Sprintf("login to %s did not complete within %s", portal.Name, s.cfg.LoginTimeout), nil)
	case err != nil:
		return categorizeError(err, models.ErrCodeNavigation, "waiting for login to complete")
	}

	slog.Debug("portal login complete", "portal", portal.Name)
	return nil
}

// navigate loads url and waits until the document reports ready.
func (s *Scraper) navigate(ctx context.Context, page Page, url string) error {
	if err := page.Navigate(url); err != nil {
		return categorizeError(err, models.ErrCodeNavigation, "navigation to "+url+" failed")
	}

	err := poll(ctx, s.cfg.PageLoadTimeout, page.Ready)
	switch {
	case errors.Is(err, errPollExpired):
		return models.NewScrapeError(models.ErrCodeNavigation, "page did not finish loading: "+url, nil)
	case err != nil:
		return categorizeError(err, models.ErrCodeNavigation, "waiting for "+url+" to load")
	}
	return nil
}

// waitFor polls until selector matches, failing with ELEMENT_TIMEOUT once
// timeout elapses.
func (s *Scraper) waitFor(ctx context.Context, page Page, selector string, timeout time.Duration) error {
	err := poll(ctx, timeout, func() (bool, error) {
		return page.Has(selector)
	})
	switch {
	case errors.Is(err, errPollExpired):
		return models.NewScrapeError(models.ErrCodeElementTimeout,
			fmt.Sprintf("element %s did not appear within %s", selector, timeout), nil)
	case err != nil:
		return categorizeError(err, models.ErrCodeNavigation, "waiting for "+selector)
	}
	return nil
}

// waitOptional is waitFor for elements that may legitimately never appear.
// Expiry and failed checks both report false. Only context expiry is an
// error.
func (s *Scraper) waitOptional(ctx context.Context, page Page, selector string, timeout time.Duration) (bool, error) {
	err := poll(ctx, timeout, func() (bool, error) {
		return page.Has(selector)
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return false, categorizeError(err, models.ErrCodeTimeout, "waiting for "+selector)
	case !errors.Is(err, errPollExpired):
		slog.Debug("optional element check failed", "selector", selector, "error", err)
	}
	return false, nil
}
