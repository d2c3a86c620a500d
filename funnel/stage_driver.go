package funnel

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// dobUnsetSentinel is what the site's date widget reports while empty.
const dobUnsetSentinel = "mm/dd/yyyy"

// handleDriverInfo fills the primary driver's demographic and license
// fields. Identity fields stay untouched here; the entry page already
// collected them for the primary driver.
func (s *session) handleDriverInfo(ctx context.Context) StageResult {
	const stage = StageDriverInfo
	if len(s.req.Drivers) == 0 {
		return failResult(stage, s.location(ctx), "driver page shown but no drivers supplied", ErrUnknownPageLayout)
	}
	d := &s.req.Drivers[0]
	if err := s.fillDriver(ctx, d, true); err != nil {
		return failResult(stage, s.location(ctx), "primary driver entry", err)
	}
	s.driverCursor = 1
	return okResult(stage, s.location(ctx), "primary driver entered")
}

// handleDriverList adds the remaining household drivers through the list
// page's add loop, then continues.
func (s *session) handleDriverList(ctx context.Context) StageResult {
	const stage = StageDriverList
	if s.driverCursor == 0 && len(s.req.Drivers) > 0 {
		s.driverCursor = 1
	}

	for s.caps.MultiDriver && s.driverCursor < len(s.req.Drivers) {
		d := &s.req.Drivers[s.driverCursor]
		log.Printf("adding driver %d/%d: %s %s", s.driverCursor+1, len(s.req.Drivers), d.FirstName, d.LastName)

		if err := s.eng.Click(ctx, s.sel.AddDriver); err != nil {
			return failResult(stage, s.location(ctx), "could not open add-driver form", err)
		}
		if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ElementVisible(s.sel.DriverDob)); err != nil {
			return failResult(stage, s.location(ctx), "add-driver form never appeared", err)
		}
		if err := s.fillDriver(ctx, d, false); err != nil {
			return failResult(stage, s.location(ctx),
				fmt.Sprintf("entry for added driver %s %s", d.FirstName, d.LastName), err)
		}
		s.driverCursor++

		if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ElementVisible(s.sel.DriverListNext)); err != nil {
			return failResult(stage, s.location(ctx), "driver list never came back after adding", err)
		}
	}
	if !s.caps.MultiDriver && s.driverCursor < len(s.req.Drivers) {
		log.Printf("deployment does not support multiple drivers, %d left unentered",
			len(s.req.Drivers)-s.driverCursor)
	}

	if err := s.eng.ClickSubmit(ctx, s.sel.DriverListNext); err != nil {
		return failResult(stage, s.location(ctx), "could not continue past driver list", err)
	}
	return okResult(stage, s.location(ctx), fmt.Sprintf("driver list done, %d entered", s.driverCursor))
}

// fillDriver populates one driver form. Primary drivers skip the name
// fields and the relationship selector.
func (s *session) fillDriver(ctx context.Context, d *DriverRecord, primary bool) error {
	if !primary {
		if !s.eng.SetText(ctx, s.sel.DriverFirstName, d.FirstName) {
			return fmt.Errorf("driver first name: %w", ErrElementNotInteractable)
		}
		if !s.eng.SetText(ctx, s.sel.DriverLastName, d.LastName) {
			return fmt.Errorf("driver last name: %w", ErrElementNotInteractable)
		}
	}

	if err := s.setDateOfBirth(ctx, s.sel.DriverDob, d.BirthDate); err != nil {
		return err
	}

	if err := s.eng.Select(ctx, s.sel.DriverGender, d.Gender); err != nil {
		return err
	}
	if err := s.eng.Select(ctx, s.sel.DriverMarital, d.MaritalStatus); err != nil {
		return err
	}

	s.selectIfVisible(ctx, s.sel.LicenseOrigin, d.LicenseOrigin)
	if d.LicenseState != "" {
		s.selectIfVisible(ctx, s.sel.LicenseState, StateName(d.LicenseState))
	}
	s.selectIfVisible(ctx, s.sel.LicenseStatus, d.LicenseStatus)
	s.setIfVisible(ctx, s.sel.LicenseNumber, d.LicenseNumber)

	if d.SR22 {
		if err := s.eng.EnsureChecked(ctx, s.sel.SR22, ""); err != nil {
			log.Printf("sr22 checkbox: %v, continuing", err)
		}
	}
	if d.HasViolations {
		if err := s.eng.EnsureChecked(ctx, s.sel.Violations, ""); err != nil {
			log.Printf("violations checkbox: %v, continuing", err)
		}
	}

	if !primary {
		s.selectIfVisible(ctx, s.sel.Relationship, d.Relationship)
	}

	if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ControlEnabled(s.sel.DriverNext)); err != nil {
		return fmt.Errorf("continue never enabled after driver entry: %w", err)
	}
	return s.eng.ClickSubmit(ctx, s.sel.DriverNext)
}

// setDateOfBirth drives the date widget through a fixed fallback ladder:
// ISO value assignment, then locale-formatted assignment, then typed entry.
// The widget silently rejects formats it dislikes, so every rung is
// verified by reading the field back against the unset sentinel.
func (s *session) setDateOfBirth(ctx context.Context, selector, isoDate string) error {
	drv := s.eng.Driver()

	attempts := []string{isoDate}
	if localized, err := localDateFormat(isoDate); err == nil {
		attempts = append(attempts, localized)
	}

	for _, value := range attempts {
		if err := drv.SetValue(ctx, selector, value); err != nil {
			continue
		}
		if dobAccepted(ctx, drv.Value, selector) {
			return nil
		}
	}

	// Last rung: type it the way a person would.
	typed := attempts[len(attempts)-1]
	if s.eng.SetText(ctx, selector, typed) && dobAccepted(ctx, drv.Value, selector) {
		return nil
	}
	return fmt.Errorf("%w: date of birth %s rejected every entry format", ErrElementNotInteractable, selector)
}

func dobAccepted(ctx context.Context, read func(context.Context, string) (string, error), selector string) bool {
	got, err := read(ctx, selector)
	if err != nil {
		return false
	}
	got = strings.TrimSpace(strings.ToLower(got))
	return got != "" && got != dobUnsetSentinel
}

// localDateFormat converts an ISO date to the MM/DD/YYYY form the widget
// displays.
func localDateFormat(isoDate string) (string, error) {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return "", fmt.Errorf("funnel: bad birth date %q: %w", isoDate, err)
	}
	return t.Format("01/02/2006"), nil
}
