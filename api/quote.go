package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"quote-funnel-go/db"
	"quote-funnel-go/funnel"
	"quote-funnel-go/ghl"
)

// quoteRequestBody is the wire shape of POST /api/v1/quote. Vehicle/Driver
// are the legacy single-entry fields older clients still send; they get
// normalized into the list form before the run.
type quoteRequestBody struct {
	Applicant funnel.ApplicantProfile  `json:"applicant"`
	Vehicles  []funnel.VehicleRecord   `json:"vehicles"`
	Drivers   []funnel.DriverRecord    `json:"drivers"`
	Policy    funnel.PolicyPreferences `json:"policy"`

	Vehicle *funnel.VehicleRecord `json:"vehicle,omitempty"`
	Driver  *funnel.DriverRecord  `json:"driver,omitempty"`
}

// normalize folds the legacy single-entry shape into the list form.
func (b *quoteRequestBody) normalize() funnel.QuoteRequest {
	req := funnel.QuoteRequest{
		Applicant: b.Applicant,
		Vehicles:  b.Vehicles,
		Drivers:   b.Drivers,
		Policy:    b.Policy,
	}
	if len(req.Vehicles) == 0 && b.Vehicle != nil {
		req.Vehicles = []funnel.VehicleRecord{*b.Vehicle}
	}
	if len(req.Drivers) == 0 && b.Driver != nil {
		req.Drivers = []funnel.DriverRecord{*b.Driver}
	}
	return req
}

// quoteResponse is the run result plus the wall-clock cost of the run.
type quoteResponse struct {
	funnel.RunResult
	ProcessingTime string `json:"processingTime"`
}

// handleQuote runs the funnel for one submission.
// POST /api/v1/quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var body quoteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req := body.normalize()

	// One run at a time; a second submission waits its turn or gives up
	// with the caller's context.
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	case <-r.Context().Done():
		jsonError(w, "request cancelled while waiting for the browser", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	result := s.runner.Run(r.Context(), req)
	elapsed := time.Since(start)

	s.persistAndNotify(req, result, elapsed)

	// Only rejected input comes back without a run ID; runs that started
	// and failed are still successful HTTP exchanges.
	status := http.StatusOK
	if !result.Success && result.RunID == "" {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(quoteResponse{RunResult: result, ProcessingTime: elapsed.Round(time.Millisecond).String()})
}

// persistAndNotify records the run and fans out notifications. All of it is
// best-effort; the caller already has their result.
func (s *Server) persistAndNotify(req funnel.QuoteRequest, result funnel.RunResult, elapsed time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sub := db.Submission{
		RunID:        result.RunID,
		FirstName:    req.Applicant.FirstName,
		LastName:     req.Applicant.LastName,
		Email:        req.Applicant.Email,
		Phone:        req.Applicant.Phone,
		State:        req.Applicant.State,
		VehicleCount: len(req.Vehicles),
		DriverCount:  len(req.Drivers),
		Success:      result.Success,
		CurrentStage: result.CurrentStage,
		Message:      result.Message,
		QuotesFound:  result.QuotesFound,
		BestPrice:    bestPrice(result.Quotes),
		ProcessingMs: elapsed.Milliseconds(),
	}
	if len(result.Errors) > 0 {
		sub.Error = result.Errors[0]
	}
	if err := s.db.SaveSubmission(ctx, sub); err != nil {
		log.Printf("save submission: %v", err)
	}

	if s.ops != nil {
		s.ops.RunSummary(req.Applicant.FullName(), result)
	}

	if !result.Success || result.QuotesFound == 0 {
		return
	}

	if s.mailer != nil {
		if err := s.mailer.SendQuoteSummary(req.Applicant.Email, req.Applicant.FullName(), result.Quotes); err != nil {
			log.Printf("quote email: %v", err)
		}
	}
	if s.texter != nil {
		if err := s.texter.SendQuoteReady(req.Applicant.Phone, result.QuotesFound, bestPrice(result.Quotes)); err != nil {
			log.Printf("quote sms: %v", err)
		}
	}
	if s.crm != nil {
		if err := s.crm.SyncLead(ctx, ghl.Lead{
			FirstName:  req.Applicant.FirstName,
			LastName:   req.Applicant.LastName,
			Email:      req.Applicant.Email,
			Phone:      req.Applicant.Phone,
			State:      req.Applicant.State,
			QuoteCount: result.QuotesFound,
			BestPrice:  bestPrice(result.Quotes),
		}); err != nil {
			log.Printf("ghl sync: %v", err)
		}
	}
}

// bestPrice picks the cheapest untagged quote. Prices are strings on the
// wire; unparseable ones are skipped.
func bestPrice(quotes []funnel.QuoteRecord) string {
	best := ""
	bestVal := 0.0
	for _, q := range quotes {
		if q.Tag != "" {
			continue
		}
		v, err := parsePrice(q.Price)
		if err != nil {
			continue
		}
		if best == "" || v < bestVal {
			best, bestVal = q.Price, v
		}
	}
	return best
}

func parsePrice(price string) (float64, error) {
	cleaned := make([]rune, 0, len(price))
	for _, r := range price {
		if (r >= '0' && r <= '9') || r == '.' {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return 0, errors.New("no digits")
	}
	return strconv.ParseFloat(string(cleaned), 64)
}
