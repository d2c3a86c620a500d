package funnel

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phoneDigits  = regexp.MustCompile(`\d`)
)

// Domains that only exist to receive throwaway mail. Submissions using them
// are not worth a browser session.
var disposableEmailDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"throwawaymail.com": true,
	"yopmail.com":       true,
	"tempmail.com":      true,
	"sharklasers.com":   true,
}

// Names that show up when someone is poking at the form rather than
// requesting a quote.
var testNames = map[string]bool{
	"test":    true,
	"testing": true,
	"asdf":    true,
	"qwerty":  true,
	"fake":    true,
	"na":      true,
	"n/a":     true,
}

// Validate checks a quote request before any browser session is opened.
// All problems are collected, not just the first.
func Validate(req QuoteRequest) error {
	var problems []string

	a := req.Applicant
	if strings.TrimSpace(a.FirstName) == "" {
		problems = append(problems, "First name is required")
	}
	if strings.TrimSpace(a.LastName) == "" {
		problems = append(problems, "Last name is required")
	}
	if strings.TrimSpace(a.Street) == "" {
		problems = append(problems, "Street address is required")
	}
	if strings.TrimSpace(a.City) == "" {
		problems = append(problems, "City is required")
	}
	if strings.TrimSpace(a.State) == "" {
		problems = append(problems, "State is required")
	} else if _, ok := stateNames[strings.ToUpper(strings.TrimSpace(a.State))]; !ok {
		problems = append(problems, fmt.Sprintf("Unknown state code %q", a.State))
	}
	if strings.TrimSpace(a.Zip) == "" {
		problems = append(problems, "ZIP code is required")
	} else if !zipPattern.MatchString(strings.TrimSpace(a.Zip)) {
		problems = append(problems, fmt.Sprintf("ZIP code %q is not valid", a.Zip))
	}
	if strings.TrimSpace(a.Email) == "" {
		problems = append(problems, "Email is required")
	} else if !emailPattern.MatchString(strings.TrimSpace(a.Email)) {
		problems = append(problems, fmt.Sprintf("Email %q is not valid", a.Email))
	}
	if strings.TrimSpace(a.Phone) == "" {
		problems = append(problems, "Phone number is required")
	} else if n := len(phoneDigits.FindAllString(a.Phone, -1)); n < 10 {
		problems = append(problems, "Phone number must have at least 10 digits")
	}

	if len(req.Vehicles) == 0 {
		problems = append(problems, "At least one vehicle is required")
	}
	for i, v := range req.Vehicles {
		if v.VIN != "" {
			continue // VIN entry resolves year/make/model on the site
		}
		if v.Year == "" || v.Make == "" || v.Model == "" {
			problems = append(problems, fmt.Sprintf("Vehicle %d needs year, make and model (or a VIN)", i+1))
		}
	}

	if len(req.Drivers) == 0 {
		problems = append(problems, "At least one driver is required")
	}
	for i, d := range req.Drivers {
		if d.BirthDate == "" {
			problems = append(problems, fmt.Sprintf("Driver %d date of birth is required", i+1))
		}
		if i > 0 && (d.FirstName == "" || d.LastName == "") {
			problems = append(problems, fmt.Sprintf("Driver %d needs a name", i+1))
		}
	}

	problems = append(problems, fraudProblems(a)...)

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// fraudProblems screens out obvious junk submissions: throwaway mail
// domains and placeholder names.
func fraudProblems(a ApplicantProfile) []string {
	var problems []string

	if at := strings.LastIndex(a.Email, "@"); at > 0 {
		domain := strings.ToLower(a.Email[at+1:])
		if disposableEmailDomains[domain] {
			problems = append(problems, "Disposable email addresses are not accepted")
		}
	}

	first := strings.ToLower(strings.TrimSpace(a.FirstName))
	last := strings.ToLower(strings.TrimSpace(a.LastName))
	if testNames[first] || testNames[last] || (first != "" && first == last) {
		problems = append(problems, "Name looks like a placeholder")
	}

	return problems
}
