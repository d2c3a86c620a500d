// Package funnel drives an automated browser through the multi-page quoting
// funnel: detecting which page is showing, filling and submitting it, and
// harvesting the quotes the funnel produces at the end.
package funnel

import "fmt"

// ApplicantProfile is the person requesting quotes. It also doubles as the
// primary driver's contact record: the funnel collects the primary driver's
// identity on its first page, not on the driver page.
type ApplicantProfile struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Street           string `json:"street"`
	Unit             string `json:"unit,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"` // 2-letter code
	Zip              string `json:"zip"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	LeadSource       string `json:"leadSource,omitempty"`
	YearsAtResidence string `json:"yearsAtResidence,omitempty"`
}

// FullName returns "First Last" for display and CRM sync.
func (a ApplicantProfile) FullName() string {
	return a.FirstName + " " + a.LastName
}

// VehicleRecord describes one vehicle to quote. Year/make/model are matched
// against the funnel's own catalog dropdowns, so they are free-text here.
type VehicleRecord struct {
	VIN             string `json:"vin,omitempty"`
	Year            string `json:"year"`
	Make            string `json:"make"`
	Model           string `json:"model"`
	Usage           string `json:"usage,omitempty"`
	Ownership       string `json:"ownership,omitempty"`
	GaragingStatus  string `json:"garagingStatus,omitempty"`
	GaragingAddress string `json:"garagingAddress,omitempty"`
	YearsOwned      string `json:"yearsOwned,omitempty"`
}

// Description returns "Year Make Model" for logs and quote matching.
func (v VehicleRecord) Description() string {
	return fmt.Sprintf("%s %s %s", v.Year, v.Make, v.Model)
}

// DriverRecord describes one driver. The driver at index 0 is always the
// primary driver; Relationship is only meaningful for the others.
type DriverRecord struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	BirthDate     string `json:"birthDate"` // ISO format, YYYY-MM-DD
	Gender        string `json:"gender"`
	MaritalStatus string `json:"maritalStatus"`
	LicenseOrigin string `json:"licenseOrigin,omitempty"`
	LicenseState  string `json:"licenseState,omitempty"`
	LicenseStatus string `json:"licenseStatus,omitempty"`
	LicenseNumber string `json:"licenseNumber,omitempty"`
	SR22          bool   `json:"sr22,omitempty"`
	HasViolations bool   `json:"hasViolations,omitempty"`
	Relationship  string `json:"relationship,omitempty"`
}

// PolicyPreferences carries prior-insurance detail and the caller's coverage
// and quote-handling choices.
type PolicyPreferences struct {
	CurrentlyInsured   bool   `json:"currentlyInsured"`
	PriorCarrier       string `json:"priorCarrier,omitempty"`
	PriorDuration      string `json:"priorDuration,omitempty"`
	PriorExpiry        string `json:"priorExpiry,omitempty"`
	PriorPayment       string `json:"priorPayment,omitempty"`
	NoInsuranceReason  string `json:"noInsuranceReason,omitempty"`
	StartDate          string `json:"startDate,omitempty"`
	CoveragePackage    string `json:"coveragePackage,omitempty"` // Basic, Standard, Optimal
	WantsPropertyQuote bool   `json:"wantsPropertyQuote,omitempty"`
	ResidenceStatus    string `json:"residenceStatus,omitempty"`
	ResidenceType      string `json:"residenceType,omitempty"`
	ContactMethod      string `json:"contactMethod,omitempty"` // phone or email
	QuoteSort          string `json:"quoteSort,omitempty"`
	SelectQuoteIndex   *int   `json:"selectQuoteIndex,omitempty"`
}

// QuoteRequest is the validated input for one funnel run.
type QuoteRequest struct {
	Applicant ApplicantProfile  `json:"applicant"`
	Vehicles  []VehicleRecord   `json:"vehicles"`
	Drivers   []DriverRecord    `json:"drivers"`
	Policy    PolicyPreferences `json:"policy"`
}

// Stage identifies one page of the funnel.
type Stage string

const (
	StagePersonalInfo    Stage = "personal_info"
	StageVehicleLookup   Stage = "vehicle_lookup"
	StageVinEntry        Stage = "vin_entry"
	StageVehicleDetails  Stage = "vehicle_details"
	StageVehicleUsage    Stage = "vehicle_usage"
	StageVehicleList     Stage = "vehicle_list"
	StageDriverInfo      Stage = "driver_info"
	StageDriverList      Stage = "driver_list"
	StagePolicyInfo      Stage = "policy_info"
	StageCoverageOptions Stage = "coverage_options"
	StagePropertyInfo    Stage = "property_info"
	StageQuoteResults    Stage = "quote_results"
	StageContactMethod   Stage = "contact_method"
	StageAlsoInterested  Stage = "also_interested"
	StageThankYou        Stage = "thank_you"
)

// StageOrder is the fixed order pages can appear in. Stages may be skipped
// by the funnel but are never revisited.
var StageOrder = []Stage{
	StagePersonalInfo,
	StageVehicleLookup,
	StageVinEntry,
	StageVehicleDetails,
	StageVehicleUsage,
	StageVehicleList,
	StageDriverInfo,
	StageDriverList,
	StagePolicyInfo,
	StageCoverageOptions,
	StagePropertyInfo,
	StageQuoteResults,
	StageContactMethod,
	StageAlsoInterested,
	StageThankYou,
}

// StageResult is what a handler reports after working one page.
type StageResult struct {
	Success  bool
	Message  string
	Stage    Stage
	Location string
	Err      error
	Quotes   []QuoteRecord
}

func okResult(stage Stage, location, msg string) StageResult {
	return StageResult{Success: true, Stage: stage, Location: location, Message: msg}
}

func failResult(stage Stage, location, msg string, err error) StageResult {
	return StageResult{Success: false, Stage: stage, Location: location, Message: msg, Err: err}
}

// CoverageItem is one itemized coverage row on a quote panel.
type CoverageItem struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// QuoteRecord is one structured quote pulled off the results page.
type QuoteRecord struct {
	Price          string         `json:"price"`
	Term           string         `json:"term,omitempty"`
	Carrier        string         `json:"carrier,omitempty"`
	Vehicle        string         `json:"vehicle,omitempty"`
	Coverages      []CoverageItem `json:"coverages,omitempty"`
	SelectionIndex int            `json:"selectionIndex"`
	// Tag marks fallback-extracted values that fell outside the plausible
	// premium window (likely coverage limits, not premiums).
	Tag string `json:"tag,omitempty"`

	// panelIndex is the record's 0-based position among the page's panels,
	// including unpriced ones extraction skipped. Selection indexes count
	// returned records only; the select button lives at the panel position.
	panelIndex int
}

// RunResult is the aggregated outcome of a whole funnel run.
type RunResult struct {
	RunID        string        `json:"runId"`
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	CurrentStage string        `json:"currentStage"`
	Errors       []string      `json:"errors,omitempty"`
	Quotes       []QuoteRecord `json:"quotes,omitempty"`
	QuotesFound  int           `json:"quotesFound"`
}

// ElementProbe is the fact base used to decide whether an interaction with
// an element is safe to attempt.
type ElementProbe struct {
	Exists     bool
	Visible    bool
	Enabled    bool
	InViewport bool
}

// Interactable reports whether the element can be acted on at all.
// Viewport position is not included: the engine scrolls instead of failing.
func (p ElementProbe) Interactable() bool {
	return p.Exists && p.Visible && p.Enabled
}

// Capabilities gates the optional multi-entry list stages. The funnel's
// add-vehicle/add-driver loops only run when the deployment supports them.
type Capabilities struct {
	MultiVehicle bool
	MultiDriver  bool
}
