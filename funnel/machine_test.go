package funnel

import (
	"context"
	"strings"
	"testing"
	"time"

	"quote-funnel-go/browser"
)

func validRequest() QuoteRequest {
	return QuoteRequest{
		Applicant: ApplicantProfile{
			FirstName: "Maria",
			LastName:  "Alvarez",
			Street:    "812 Oak Grove Ave",
			City:      "Sacramento",
			State:     "CA",
			Zip:       "95814",
			Email:     "maria.alvarez@example.com",
			Phone:     "916-555-0142",
		},
		Vehicles: []VehicleRecord{{Year: "2020", Make: "Honda", Model: "Civic"}},
		Drivers: []DriverRecord{{
			FirstName:     "Maria",
			LastName:      "Alvarez",
			BirthDate:     "1990-05-10",
			Gender:        "Female",
			MaritalStatus: "Single",
		}},
		Policy: PolicyPreferences{ContactMethod: "phone"},
	}
}

func placeholderAnd(opt browser.SelectOption) []browser.SelectOption {
	return []browser.SelectOption{{Text: "-- choose --", Value: ""}, opt}
}

// buildFunnelPages wires a fake five-page funnel: entry, vehicle lookup,
// vehicle details, driver info, quote results, contact method. The funnel
// skips every optional stage, which is its prerogative.
func buildFunnelPages(drv *fakeDriver) {
	contactPage := fakePage{
		location: "https://funnel.test/quote/contact-method",
		elements: map[string]*fakeElement{
			".contact-choice":                {},
			".contact-choice:nth-of-type(1)": {},
			".contact-choice:nth-of-type(2)": {},
		},
		html: `<div class="contact-choice">Call me by phone</div><div class="contact-choice">Email me instead</div>`,
	}

	resultsPage := fakePage{
		location: "https://funnel.test/quote/results",
		elements: map[string]*fakeElement{
			".quote-panel": {},
			".quote-price": {text: "$87.50"},
		},
		html: `<div class="quote-panel">
			<span class="quote-price">$87.50</span>
			<span class="quote-term">per month</span>
			<span class="quote-vehicle">2020 Honda Civic</span>
			<button class="btn-select-quote" onclick="selectQuote('Pacific Mutual', 0)">Select</button>
		</div>`,
	}
	selectBtn := &fakeElement{onClick: func() { drv.load(contactPage) }}
	resultsPage.elements[".quote-panel:nth-of-type(1) .btn-select-quote"] = selectBtn

	driverPage := fakePage{
		location: "https://funnel.test/quote/driver-info",
		elements: map[string]*fakeElement{
			"#driverDob":           {value: "mm/dd/yyyy"},
			"#driverGender":        {options: placeholderAnd(browser.SelectOption{Text: "Female", Value: "F"})},
			"#driverMaritalStatus": {options: placeholderAnd(browser.SelectOption{Text: "Single", Value: "S"})},
			"#btnDriverNext":       {onClick: func() { drv.load(resultsPage) }},
		},
	}

	detailsPage := fakePage{
		location: "https://funnel.test/quote/vehicle-details",
		elements: map[string]*fakeElement{
			"#vehicleYear":           {options: placeholderAnd(browser.SelectOption{Text: "2020", Value: "2020"})},
			"#vehicleMake":           {options: placeholderAnd(browser.SelectOption{Text: "Honda", Value: "HONDA"})},
			"#vehicleModel":          {options: placeholderAnd(browser.SelectOption{Text: "Civic", Value: "CIVIC"})},
			"#btnVehicleDetailsNext": {onClick: func() { drv.load(driverPage) }},
		},
	}

	lookupPage := fakePage{
		location: "https://funnel.test/quote/vehicle-lookup",
		elements: map[string]*fakeElement{
			"#enterVehicleManually": {onClick: func() { drv.load(detailsPage) }},
		},
	}

	entryPage := fakePage{
		location: "https://funnel.test/quote/start",
		elements: map[string]*fakeElement{
			"#quoteForm":       {},
			"#firstName":       {},
			"#lastName":        {},
			"#street":          {},
			"#city":            {},
			"#zipCode":         {},
			"#email":           {},
			"#phone":           {},
			"#state":           {options: placeholderAnd(browser.SelectOption{Text: "California", Value: "CA"})},
			"#agreeDisclosure": {checkbox: true},
			"#btnStartQuote":   {onClick: func() { drv.load(lookupPage) }},
		},
	}

	drv.load(entryPage)
}

func TestRunEndToEnd(t *testing.T) {
	drv := newFakeDriver(fakePage{})
	buildFunnelPages(drv)
	m := testMachine(drv, 300*time.Millisecond)

	req := validRequest()
	idx := 0
	req.Policy.SelectQuoteIndex = &idx

	result := m.Run(context.Background(), req)
	if !result.Success {
		t.Fatalf("run failed: %s (errors: %v)", result.Message, result.Errors)
	}
	if !strings.Contains(result.CurrentStage, "/quote/contact-method") {
		t.Errorf("currentStage = %q, want the contact-method location", result.CurrentStage)
	}
	if result.QuotesFound != 1 {
		t.Fatalf("quotesFound = %d, want 1", result.QuotesFound)
	}
	q := result.Quotes[0]
	if q.Price != "$87.50" || q.Carrier != "Pacific Mutual" {
		t.Errorf("quote = %+v, want $87.50 from Pacific Mutual", q)
	}
	if len(drv.navigations) != 1 {
		t.Errorf("navigated %d times, want exactly one entry navigation", len(drv.navigations))
	}
}

func TestRunRejectsMissingEmailBeforeNavigation(t *testing.T) {
	drv := newFakeDriver(fakePage{})
	buildFunnelPages(drv)
	m := testMachine(drv, 300*time.Millisecond)

	req := validRequest()
	req.Applicant.Email = ""

	result := m.Run(context.Background(), req)
	if result.Success {
		t.Fatal("run succeeded with no email")
	}
	found := false
	for _, e := range result.Errors {
		if e == "Email is required" {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want an \"Email is required\" entry", result.Errors)
	}
	if len(drv.navigations) != 0 {
		t.Errorf("browser navigated %d times before validation", len(drv.navigations))
	}
}

func TestRunFailsWithOptionListOnUnmatchableMake(t *testing.T) {
	drv := newFakeDriver(fakePage{})
	buildFunnelPages(drv)
	m := testMachine(drv, 300*time.Millisecond)

	req := validRequest()
	req.Vehicles[0].Make = "toyotaa"

	result := m.Run(context.Background(), req)
	if result.Success {
		t.Fatal("run succeeded with an unmatchable vehicle make")
	}
	joined := strings.Join(result.Errors, " ")
	if !strings.Contains(joined, "Honda") {
		t.Errorf("errors %v do not enumerate the available make options", result.Errors)
	}
	if !strings.Contains(result.Message, string(StageVehicleDetails)) {
		t.Errorf("message %q does not name the failing stage", result.Message)
	}
}

func TestRunFailsWhenNoStageFollowsEntry(t *testing.T) {
	drv := newFakeDriver(fakePage{})
	buildFunnelPages(drv)
	m := testMachine(drv, 300*time.Millisecond)

	// The entry submit lands somewhere no signature describes.
	drv.page.elements["#btnStartQuote"].onClick = func() {
		drv.load(fakePage{
			location: "https://funnel.test/maintenance",
			elements: map[string]*fakeElement{},
		})
	}

	result := m.Run(context.Background(), validRequest())
	if result.Success {
		t.Fatal("run succeeded on an unrecognizable flow")
	}
	if !strings.Contains(result.Message, "no funnel stage recognized after entry") {
		t.Errorf("message = %q, want the detection exhaustion reported", result.Message)
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "no stage detected") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want the detection timeout error carried", result.Errors)
	}
}

func TestRunAbortsOnFirstHandlerFailure(t *testing.T) {
	drv := newFakeDriver(fakePage{})
	buildFunnelPages(drv)
	m := testMachine(drv, 300*time.Millisecond)

	var shots []Stage
	m.screenshots = func(stage Stage, img []byte) { shots = append(shots, stage) }

	req := validRequest()
	req.Vehicles[0].Make = "toyotaa"

	result := m.Run(context.Background(), req)
	if result.Success {
		t.Fatal("run succeeded past a failing handler")
	}
	if len(shots) != 1 || shots[0] != StageVehicleDetails {
		t.Errorf("screenshots taken at %v, want exactly one at the failing stage", shots)
	}
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	drv := newFakeDriver(fakePage{})
	buildFunnelPages(drv)
	m := testMachine(drv, 300*time.Millisecond)

	var types []string
	m.events = func(eventType, runID string, stage Stage, message string) {
		types = append(types, eventType)
	}

	result := m.Run(context.Background(), validRequest())
	if !result.Success {
		t.Fatalf("run failed: %s", result.Message)
	}
	if types[0] != EventRunStarted {
		t.Errorf("first event = %s, want %s", types[0], EventRunStarted)
	}
	if types[len(types)-1] != EventRunFinished {
		t.Errorf("last event = %s, want %s", types[len(types)-1], EventRunFinished)
	}
	sawQuotes := false
	for _, ty := range types {
		if ty == EventQuotesFound {
			sawQuotes = true
		}
	}
	if !sawQuotes {
		t.Error("no quotes_found event emitted")
	}
}
