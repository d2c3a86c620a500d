package funnel

// StageSignature is how a stage announces itself: a fragment of the
// browser's location, and a DOM marker unique to the page. Either signal is
// enough; detection races both.
type StageSignature struct {
	LocationFragment string
	Marker           string
}

// SiteProfile is the per-deployment description of the target funnel: stage
// signatures, every selector the handlers touch, and the premium
// plausibility window. All of it is empirically tuned to the target site's
// markup, so it lives in one injectable value instead of scattered
// constants.
type SiteProfile struct {
	Signatures map[Stage]StageSignature
	Selectors  Selectors

	// Fallback price extraction treats currency tokens inside this window
	// as plausible premiums; values outside it get tagged as likely
	// coverage limits.
	PremiumMin float64
	PremiumMax float64
}

// Selectors holds the CSS selectors for every control the handlers populate.
type Selectors struct {
	// Personal info page
	FirstName        string
	LastName         string
	Street           string
	Unit             string
	City             string
	StateSelect      string
	Zip              string
	Email            string
	Phone            string
	LeadSource       string
	YearsAtResidence string
	Agreement        string
	AgreementLabel   string
	PersonalSubmit   string
	ErrorMessages    string

	// Address confirmation dialog
	AddressConfirmMarker   string
	AddressConfirmContinue string

	// Vehicle pages
	ManualVehicleEntry string
	VinEntryLink       string
	VehicleLookupNext  string
	VinField           string
	VinNext            string
	VehicleYear        string
	VehicleMake        string
	VehicleModel       string
	VehicleDetailsNext string
	VehicleUsage       string
	OwnershipPanel     string
	VehicleOwnership   string
	GaragingStatus     string
	GaragingPanel      string
	GaragingAddress    string
	GaragingSave       string
	YearsOwned         string
	VehicleUsageNext   string
	AddVehicle         string
	VehicleListNext    string

	// Driver pages
	DriverFirstName string
	DriverLastName  string
	DriverDob       string
	DriverGender    string
	DriverMarital   string
	LicenseOrigin   string
	LicenseState    string
	LicenseStatus   string
	LicenseNumber   string
	SR22            string
	Violations      string
	Relationship    string
	DriverNext      string
	AddDriver       string
	DriverListNext  string

	// Policy pages
	InsuredYes        string
	InsuredNo         string
	PriorCarrier      string
	PriorDuration     string
	PriorExpiry       string
	PriorPayment      string
	NoInsuranceReason string
	PolicyStartDate   string
	PolicyNext        string
	PackageBasic      string
	PackageStandard   string
	PackageOptimal    string
	CoverageNext      string
	PropertyYes       string
	PropertyNo        string
	ResidencePanel    string
	ResidenceStatus   string
	ResidenceType     string
	PropertyNext      string

	// Quote results page
	QuotePanel      string
	QuotePrice      string
	QuoteTerm       string
	QuoteCarrierBtn string
	QuoteVehicle    string
	CoverageRow     string
	CoverageTitle   string
	CoverageValue   string
	QuoteSort       string
	QuoteSelectNth  string // Sprintf pattern, 1-based index

	// Tail pages
	ContactChoice      string
	ContactChoiceNth   string // Sprintf pattern, 1-based index
	DeclineOffers      string
	AlsoInterestedNext string
}

// DefaultSiteProfile describes the reference deployment's markup.
func DefaultSiteProfile() *SiteProfile {
	return &SiteProfile{
		Signatures: map[Stage]StageSignature{
			StagePersonalInfo:    {"/quote/start", "#quoteForm"},
			StageVehicleLookup:   {"/quote/vehicle-lookup", "#enterVehicleManually"},
			StageVinEntry:        {"/quote/vin-entry", "#vin"},
			StageVehicleDetails:  {"/quote/vehicle-details", "#vehicleYear"},
			StageVehicleUsage:    {"/quote/vehicle-usage", "#vehicleUsage"},
			StageVehicleList:     {"/quote/vehicle-list", "#btnVehicleListDone"},
			StageDriverInfo:      {"/quote/driver-info", "#driverDob"},
			StageDriverList:      {"/quote/driver-list", "#btnDriverListDone"},
			StagePolicyInfo:      {"/quote/policy-info", "#policyStartDate"},
			StageCoverageOptions: {"/quote/coverage-options", "#pkgStandard"},
			StagePropertyInfo:    {"/quote/property-info", "#propertyInterestYes"},
			StageQuoteResults:    {"/quote/results", ".quote-panel"},
			StageContactMethod:   {"/quote/contact-method", ".contact-choice"},
			StageAlsoInterested:  {"/quote/also-interested", "#btnNoThanks"},
			StageThankYou:        {"/quote/thank-you", "#thankYouMessage"},
		},
		Selectors: Selectors{
			FirstName:        "#firstName",
			LastName:         "#lastName",
			Street:           "#street",
			Unit:             "#aptUnit",
			City:             "#city",
			StateSelect:      "#state",
			Zip:              "#zipCode",
			Email:            "#email",
			Phone:            "#phone",
			LeadSource:       "#leadSource",
			YearsAtResidence: "#yearsAtResidence",
			Agreement:        "#agreeDisclosure",
			AgreementLabel:   "label[for='agreeDisclosure']",
			PersonalSubmit:   "#btnStartQuote",
			ErrorMessages:    ".validation-error, .field-error",

			AddressConfirmMarker:   "#addressConfirm",
			AddressConfirmContinue: "#useSuggestedAddress",

			ManualVehicleEntry: "#enterVehicleManually",
			VinEntryLink:       "#enterByVin",
			VehicleLookupNext:  "#btnVehicleLookupNext",
			VinField:           "#vin",
			VinNext:            "#btnVinNext",
			VehicleYear:        "#vehicleYear",
			VehicleMake:        "#vehicleMake",
			VehicleModel:       "#vehicleModel",
			VehicleDetailsNext: "#btnVehicleDetailsNext",
			VehicleUsage:       "#vehicleUsage",
			OwnershipPanel:     "#ownershipPanel",
			VehicleOwnership:   "#vehicleOwnership",
			GaragingStatus:     "#garagingStatus",
			GaragingPanel:      "#garagingPanel",
			GaragingAddress:    "#garagingAddress",
			GaragingSave:       "#btnSaveGaraging",
			YearsOwned:         "#lengthOfOwnership",
			VehicleUsageNext:   "#btnVehicleUsageNext",
			AddVehicle:         "#btnAddVehicle",
			VehicleListNext:    "#btnVehicleListDone",

			DriverFirstName: "#driverFirstName",
			DriverLastName:  "#driverLastName",
			DriverDob:       "#driverDob",
			DriverGender:    "#driverGender",
			DriverMarital:   "#driverMaritalStatus",
			LicenseOrigin:   "#licenseOrigin",
			LicenseState:    "#licenseState",
			LicenseStatus:   "#licenseStatus",
			LicenseNumber:   "#licenseNumber",
			SR22:            "#sr22Required",
			Violations:      "#hasViolations",
			Relationship:    "#driverRelationship",
			DriverNext:      "#btnDriverNext",
			AddDriver:       "#btnAddDriver",
			DriverListNext:  "#btnDriverListDone",

			InsuredYes:        "#currentlyInsuredYes",
			InsuredNo:         "#currentlyInsuredNo",
			PriorCarrier:      "#priorCarrier",
			PriorDuration:     "#priorDuration",
			PriorExpiry:       "#priorExpiry",
			PriorPayment:      "#priorPaymentType",
			NoInsuranceReason: "#reasonNotInsured",
			PolicyStartDate:   "#policyStartDate",
			PolicyNext:        "#btnPolicyNext",
			PackageBasic:      "#pkgBasic",
			PackageStandard:   "#pkgStandard",
			PackageOptimal:    "#pkgOptimal",
			CoverageNext:      "#btnCoverageNext",
			PropertyYes:       "#propertyInterestYes",
			PropertyNo:        "#propertyInterestNo",
			ResidencePanel:    "#residencePanel",
			ResidenceStatus:   "#residenceStatus",
			ResidenceType:     "#residenceType",
			PropertyNext:      "#btnPropertyNext",

			QuotePanel:      ".quote-panel",
			QuotePrice:      ".quote-price",
			QuoteTerm:       ".quote-term",
			QuoteCarrierBtn: ".btn-select-quote",
			QuoteVehicle:    ".quote-vehicle",
			CoverageRow:     ".coverage-row",
			CoverageTitle:   ".coverage-title",
			CoverageValue:   ".coverage-value",
			QuoteSort:       "#quoteSortOrder",
			QuoteSelectNth:  ".quote-panel:nth-of-type(%d) .btn-select-quote",

			ContactChoice:      ".contact-choice",
			ContactChoiceNth:   ".contact-choice:nth-of-type(%d)",
			DeclineOffers:      "#btnNoThanks",
			AlsoInterestedNext: "#btnAlsoInterestedNext",
		},
		PremiumMin: 50,
		PremiumMax: 2000,
	}
}
