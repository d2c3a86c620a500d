package funnel

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCollectsAllProblems(t *testing.T) {
	req := validRequest()
	req.Applicant.Email = ""
	req.Applicant.Zip = "abc"

	err := Validate(req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %T, want *ValidationError", err)
	}
	joined := strings.Join(verr.Problems, "; ")
	if !strings.Contains(joined, "Email is required") {
		t.Errorf("problems %q missing email entry", joined)
	}
	if !strings.Contains(joined, "ZIP") {
		t.Errorf("problems %q missing zip entry", joined)
	}
}

func TestValidateAcceptsCleanRequest(t *testing.T) {
	if err := Validate(validRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestValidateVehicleRules(t *testing.T) {
	tests := []struct {
		name    string
		vehicle VehicleRecord
		ok      bool
	}{
		{"full manual entry", VehicleRecord{Year: "2020", Make: "Honda", Model: "Civic"}, true},
		{"vin only", VehicleRecord{VIN: "2HGFC2F59LH000000"}, true},
		{"missing model", VehicleRecord{Year: "2020", Make: "Honda"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.Vehicles = []VehicleRecord{tt.vehicle}
			err := Validate(req)
			if tt.ok && err != nil {
				t.Errorf("rejected: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("accepted an incomplete vehicle")
			}
		})
	}
}

func TestValidateFraudScreens(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuoteRequest)
	}{
		{"disposable email", func(r *QuoteRequest) { r.Applicant.Email = "x@mailinator.com" }},
		{"placeholder name", func(r *QuoteRequest) { r.Applicant.FirstName = "Test"; r.Applicant.LastName = "test" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if Validate(req) == nil {
				t.Error("junk submission accepted")
			}
		})
	}
}
