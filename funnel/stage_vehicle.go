package funnel

import (
	"context"
	"fmt"
	"log"
)

// handleVehicleLookup chooses how the first vehicle gets entered: by VIN
// when the caller supplied one, otherwise manual year/make/model entry.
// Manual entry is always preferred over the site's prefill suggestions.
func (s *session) handleVehicleLookup(ctx context.Context) StageResult {
	const stage = StageVehicleLookup
	v := s.currentVehicle()

	entry := s.sel.ManualVehicleEntry
	mode := "manual entry"
	if v != nil && v.VIN != "" {
		entry = s.sel.VinEntryLink
		mode = "vin entry"
	}
	if err := s.eng.Click(ctx, entry); err != nil {
		return failResult(stage, s.location(ctx), "could not choose "+mode, err)
	}

	// Some deployments need an explicit continue after the choice.
	if visible, err := s.eng.Driver().Visible(ctx, s.sel.VehicleLookupNext); err == nil && visible {
		if err := s.eng.ClickSubmit(ctx, s.sel.VehicleLookupNext); err != nil {
			return failResult(stage, s.location(ctx), "could not continue past vehicle lookup", err)
		}
	}
	return okResult(stage, s.location(ctx), "vehicle lookup: chose "+mode)
}

// handleVinEntry submits the current vehicle's VIN. Only dispatched when the
// lookup stage routed to it.
func (s *session) handleVinEntry(ctx context.Context) StageResult {
	const stage = StageVinEntry
	v := s.currentVehicle()
	if v == nil || v.VIN == "" {
		return failResult(stage, s.location(ctx), "vin entry page shown but no vin supplied", ErrUnknownPageLayout)
	}
	if !s.eng.SetText(ctx, s.sel.VinField, v.VIN) {
		return failResult(stage, s.location(ctx), "could not fill vin", ErrElementNotInteractable)
	}
	if err := s.eng.ClickSubmit(ctx, s.sel.VinNext); err != nil {
		return failResult(stage, s.location(ctx), "could not submit vin", err)
	}
	return okResult(stage, s.location(ctx), "vin submitted")
}

func (s *session) handleVehicleDetails(ctx context.Context) StageResult {
	const stage = StageVehicleDetails
	v := s.currentVehicle()
	if v == nil {
		return failResult(stage, s.location(ctx), "vehicle details page shown but no vehicle left to enter", ErrUnknownPageLayout)
	}
	if err := s.fillVehicleDetails(ctx, v); err != nil {
		return failResult(stage, s.location(ctx), fmt.Sprintf("vehicle details for %s", v.Description()), err)
	}
	return okResult(stage, s.location(ctx), "vehicle details entered: "+v.Description())
}

func (s *session) handleVehicleUsage(ctx context.Context) StageResult {
	const stage = StageVehicleUsage
	v := s.currentVehicle()
	if v == nil {
		return failResult(stage, s.location(ctx), "vehicle usage page shown but no vehicle left to enter", ErrUnknownPageLayout)
	}
	if err := s.fillVehicleUsage(ctx, v); err != nil {
		return failResult(stage, s.location(ctx), fmt.Sprintf("vehicle usage for %s", v.Description()), err)
	}
	s.vehicleCursor++
	return okResult(stage, s.location(ctx), "vehicle usage entered: "+v.Description())
}

// handleVehicleList closes out vehicle entry. With multi-vehicle support the
// remaining vehicles are entered through the list page's own add loop, which
// replays the details and usage panels inline.
func (s *session) handleVehicleList(ctx context.Context) StageResult {
	const stage = StageVehicleList

	// Reaching the list means the first vehicle is in, even if the funnel
	// skipped the usage page that normally advances the cursor.
	if s.vehicleCursor == 0 && len(s.req.Vehicles) > 0 {
		s.vehicleCursor = 1
	}

	for s.caps.MultiVehicle && s.vehicleCursor < len(s.req.Vehicles) {
		v := &s.req.Vehicles[s.vehicleCursor]
		log.Printf("adding vehicle %d/%d: %s", s.vehicleCursor+1, len(s.req.Vehicles), v.Description())

		if err := s.eng.Click(ctx, s.sel.AddVehicle); err != nil {
			return failResult(stage, s.location(ctx), "could not open add-vehicle form", err)
		}
		if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ElementVisible(s.sel.VehicleYear)); err != nil {
			return failResult(stage, s.location(ctx), "add-vehicle form never appeared", err)
		}
		if err := s.fillVehicleDetails(ctx, v); err != nil {
			return failResult(stage, s.location(ctx), fmt.Sprintf("details for added vehicle %s", v.Description()), err)
		}
		if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ElementVisible(s.sel.VehicleUsage)); err != nil {
			return failResult(stage, s.location(ctx), "usage panel never appeared for added vehicle", err)
		}
		if err := s.fillVehicleUsage(ctx, v); err != nil {
			return failResult(stage, s.location(ctx), fmt.Sprintf("usage for added vehicle %s", v.Description()), err)
		}
		s.vehicleCursor++

		if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ElementVisible(s.sel.VehicleListNext)); err != nil {
			return failResult(stage, s.location(ctx), "vehicle list never came back after adding", err)
		}
	}
	if !s.caps.MultiVehicle && s.vehicleCursor < len(s.req.Vehicles) {
		log.Printf("deployment does not support multiple vehicles, %d left unentered",
			len(s.req.Vehicles)-s.vehicleCursor)
	}

	if err := s.eng.ClickSubmit(ctx, s.sel.VehicleListNext); err != nil {
		return failResult(stage, s.location(ctx), "could not continue past vehicle list", err)
	}
	return okResult(stage, s.location(ctx), fmt.Sprintf("vehicle list done, %d entered", s.vehicleCursor))
}

// currentVehicle is the vehicle the single-entry stages are working on.
func (s *session) currentVehicle() *VehicleRecord {
	if s.vehicleCursor >= len(s.req.Vehicles) {
		return nil
	}
	return &s.req.Vehicles[s.vehicleCursor]
}

// fillVehicleDetails resolves year, make and model against the page's
// dependent dropdowns. Make options load after year is chosen, model after
// make, so each step waits out the catalog fetch before selecting.
func (s *session) fillVehicleDetails(ctx context.Context, v *VehicleRecord) error {
	if err := s.eng.Select(ctx, s.sel.VehicleYear, v.Year); err != nil {
		return err
	}
	if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.OptionsPopulated(s.sel.VehicleMake)); err != nil {
		return fmt.Errorf("make options never populated: %w", err)
	}
	if err := s.eng.Select(ctx, s.sel.VehicleMake, v.Make); err != nil {
		return err
	}
	if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.OptionsPopulated(s.sel.VehicleModel)); err != nil {
		return fmt.Errorf("model options never populated: %w", err)
	}
	if err := s.eng.Select(ctx, s.sel.VehicleModel, v.Model); err != nil {
		return err
	}
	if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ControlEnabled(s.sel.VehicleDetailsNext)); err != nil {
		return fmt.Errorf("continue never enabled after vehicle details: %w", err)
	}
	return s.eng.ClickSubmit(ctx, s.sel.VehicleDetailsNext)
}

// fillVehicleUsage populates usage, ownership and garaging. Ownership and
// garaging live in conditional panels; they are only touched when showing.
// The garaging address opens a nested sub-dialog when garaging is anything
// but the default.
func (s *session) fillVehicleUsage(ctx context.Context, v *VehicleRecord) error {
	if v.Usage != "" {
		if err := s.eng.Select(ctx, s.sel.VehicleUsage, v.Usage); err != nil {
			return err
		}
	}

	if visible, err := s.eng.Driver().Visible(ctx, s.sel.OwnershipPanel); err == nil && visible {
		s.selectIfVisible(ctx, s.sel.VehicleOwnership, v.Ownership)
	}

	if v.GaragingStatus != "" {
		s.selectIfVisible(ctx, s.sel.GaragingStatus, v.GaragingStatus)
		// The address dialog is optional; a missed save is logged, not fatal.
		if visible, err := s.eng.Driver().Visible(ctx, s.sel.GaragingPanel); err == nil && visible {
			if v.GaragingAddress != "" {
				s.setIfVisible(ctx, s.sel.GaragingAddress, v.GaragingAddress)
			}
			if err := s.eng.Click(ctx, s.sel.GaragingSave); err != nil {
				log.Printf("garaging dialog save failed: %v, continuing", err)
			}
		}
	}

	s.selectIfVisible(ctx, s.sel.YearsOwned, v.YearsOwned)

	if err := s.eng.WaitReady(ctx, s.waitFor, s.eng.ControlEnabled(s.sel.VehicleUsageNext)); err != nil {
		return fmt.Errorf("continue never enabled after vehicle usage: %w", err)
	}
	return s.eng.ClickSubmit(ctx, s.sel.VehicleUsageNext)
}
