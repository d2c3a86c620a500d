package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quote-funnel-go/api/websocket"
	"quote-funnel-go/config"
	"quote-funnel-go/funnel"
)

// stubRunner returns a canned result and records the request it was given.
type stubRunner struct {
	result funnel.RunResult
	got    funnel.QuoteRequest
}

func (r *stubRunner) Run(ctx context.Context, req funnel.QuoteRequest) funnel.RunResult {
	r.got = req
	return r.result
}

func newTestServer(r Runner) *Server {
	cfg := &config.Config{APIToken: "secret", APIPort: "0"}
	return NewServer(cfg, nil, r, websocket.NewHub(), nil, nil, nil, nil)
}

func postQuote(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleQuote(w, req)
	return w
}

func TestQuoteValidationFailureIsBadRequestJSON(t *testing.T) {
	runner := &stubRunner{result: funnel.RunResult{
		Success: false,
		Message: "validation failed",
		Errors:  []string{"Email is required"},
	}}
	s := newTestServer(runner)

	w := postQuote(t, s, `{"applicant":{"firstName":"Maria"}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for rejected input", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	if resp.Message != "validation failed" || len(resp.Errors) != 1 {
		t.Errorf("response = %+v, want the validation problems passed through", resp)
	}
}

func TestQuoteRunFailureIsNotBadRequest(t *testing.T) {
	runner := &stubRunner{result: funnel.RunResult{
		RunID:   "2f4a9d1e",
		Success: false,
		Message: "funnel site unreachable",
	}}
	s := newTestServer(runner)

	w := postQuote(t, s, `{"applicant":{"firstName":"Maria"}}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: a run that started is not the caller's fault", w.Code, http.StatusOK)
	}
}

func TestQuoteNormalizesLegacySingleEntryShape(t *testing.T) {
	runner := &stubRunner{result: funnel.RunResult{RunID: "9b7c", Success: true}}
	s := newTestServer(runner)

	body := `{
		"applicant": {"firstName": "Maria", "lastName": "Alvarez"},
		"vehicle":   {"year": "2020", "make": "Honda", "model": "Civic"},
		"driver":    {"firstName": "Maria", "lastName": "Alvarez", "birthDate": "1990-05-10"}
	}`
	postQuote(t, s, body)

	if len(runner.got.Vehicles) != 1 || runner.got.Vehicles[0].Make != "Honda" {
		t.Errorf("vehicles = %+v, want the legacy vehicle folded into the list", runner.got.Vehicles)
	}
	if len(runner.got.Drivers) != 1 || runner.got.Drivers[0].BirthDate != "1990-05-10" {
		t.Errorf("drivers = %+v, want the legacy driver folded into the list", runner.got.Drivers)
	}
}
