package funnel

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ScreenshotSink receives diagnostic screenshots. The machine treats the
// call as fire-and-forget; persistence is the sink's problem.
type ScreenshotSink func(stage Stage, image []byte)

// EventSink receives run lifecycle notifications (for the progress hub).
type EventSink func(eventType, runID string, stage Stage, message string)

// Event types delivered to the EventSink.
const (
	EventRunStarted     = "run_started"
	EventStageCompleted = "stage_completed"
	EventQuotesFound    = "quotes_found"
	EventRunFinished    = "run_finished"
)

// Machine walks one applicant through the whole funnel: it executes the
// entry page, then repeatedly detects which page the browser is showing and
// dispatches the matching handler until the funnel runs out of pages.
type Machine struct {
	eng     *Engine
	profile *SiteProfile
	caps    Capabilities
	baseURL string

	stageTimeout  time.Duration
	signalTimeout time.Duration
	pollEvery     time.Duration

	screenshots ScreenshotSink
	events      EventSink
}

// MachineOptions configures a Machine. Engine, Profile and BaseURL are
// required; the rest default sensibly.
type MachineOptions struct {
	Engine       *Engine
	Profile      *SiteProfile
	BaseURL      string
	Capabilities Capabilities
	StageTimeout time.Duration
	Screenshots  ScreenshotSink
	Events       EventSink
}

// NewMachine builds a funnel state machine.
func NewMachine(opts MachineOptions) *Machine {
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 15 * time.Second
	}
	m := &Machine{
		eng:           opts.Engine,
		profile:       opts.Profile,
		caps:          opts.Capabilities,
		baseURL:       opts.BaseURL,
		stageTimeout:  opts.StageTimeout,
		signalTimeout: opts.StageTimeout / 5,
		pollEvery:     opts.Engine.pollEvery,
		screenshots:   opts.Screenshots,
		events:        opts.Events,
	}
	if m.signalTimeout < 100*time.Millisecond {
		m.signalTimeout = 100 * time.Millisecond
	}
	return m
}

func (m *Machine) emit(eventType, runID string, stage Stage, message string) {
	if m.events != nil {
		m.events(eventType, runID, stage, message)
	}
}

// snapshot requests a diagnostic screenshot. Failures are logged and
// swallowed; the run never depends on the result.
func (m *Machine) snapshot(ctx context.Context, stage Stage) {
	if m.screenshots == nil {
		return
	}
	img, err := m.eng.Driver().Screenshot(ctx)
	if err != nil {
		log.Printf("screenshot at %s failed: %v", stage, err)
		return
	}
	m.screenshots(stage, img)
}

func (m *Machine) location(ctx context.Context) string {
	loc, err := m.eng.Driver().Location(ctx)
	if err != nil {
		return ""
	}
	return loc
}

// Run executes one complete funnel pass for the request. Input is read-only
// for the duration; all mutable run state lives in the session.
func (m *Machine) Run(ctx context.Context, req QuoteRequest) RunResult {
	var result RunResult

	// Malformed input never reaches the browser, and never earns a run ID.
	if err := Validate(req); err != nil {
		if verr, ok := err.(*ValidationError); ok {
			result.Message = "validation failed"
			result.Errors = verr.Problems
		} else {
			result.Message = err.Error()
		}
		return result
	}

	runID := uuid.NewString()
	result.RunID = runID

	m.emit(EventRunStarted, runID, "", "run started for "+req.Applicant.FullName())
	log.Printf("run %s: starting funnel for %s (%d vehicles, %d drivers)",
		runID, req.Applicant.FullName(), len(req.Vehicles), len(req.Drivers))

	s := &session{
		eng:     m.eng,
		sel:     &m.profile.Selectors,
		profile: m.profile,
		req:     &req,
		caps:    m.caps,
		waitFor: m.stageTimeout,
	}

	if err := m.eng.Driver().Navigate(ctx, m.baseURL); err != nil {
		result.Message = fmt.Sprintf("could not reach funnel: %v", err)
		result.Errors = append(result.Errors, err.Error())
		m.emit(EventRunFinished, runID, "", result.Message)
		return result
	}

	handlers := m.handlerTable(s)

	// The entry page has no separate detection step.
	handled := map[Stage]bool{}
	last := handlers[StagePersonalInfo](ctx)
	handled[StagePersonalInfo] = true
	if !last.Success {
		return m.finish(ctx, result, last)
	}
	m.emit(EventStageCompleted, runID, last.Stage, last.Message)

	var quotes []QuoteRecord
	idx := 1 // stages before this index are behind us; never re-entered
	for {
		stage, at, found := m.detectNext(ctx, idx)
		if !found {
			// Detection exhausting right after entry means the flow never
			// matched this profile at all; exhausting later is just the
			// funnel running out of pages.
			if len(handled) == 1 {
				last = failResult(StagePersonalInfo, m.location(ctx),
					"no funnel stage recognized after entry", ErrStageDetectionTimeout)
				return m.finish(ctx, result, last)
			}
			break
		}
		if handled[stage] {
			// Seeing an already-handled marker means the page did not
			// advance; treat as detection exhaustion rather than looping.
			break
		}
		handler, ok := handlers[stage]
		if !ok {
			last = failResult(stage, m.location(ctx), "no handler for detected stage", ErrUnknownPageLayout)
			return m.finish(ctx, result, last)
		}

		log.Printf("run %s: detected stage %s", runID, stage)
		last = handler(ctx)
		handled[stage] = true
		idx = at + 1

		if !last.Success {
			return m.finish(ctx, result, last)
		}
		if len(last.Quotes) > 0 {
			quotes = append(quotes, last.Quotes...)
			m.emit(EventQuotesFound, runID, stage, fmt.Sprintf("%d quotes extracted", len(last.Quotes)))
		}
		m.emit(EventStageCompleted, runID, stage, last.Message)

		if stage == StageThankYou {
			break
		}
	}

	// Quote-collection fallback: if the results page never announced
	// itself, scrape whatever is currently displayed. Best effort only.
	if !handled[StageQuoteResults] && len(quotes) == 0 {
		log.Printf("run %s: quote results stage never detected, extracting from current page", runID)
		if html, err := m.eng.Driver().HTML(ctx); err == nil {
			extracted, err := ExtractQuotes(html, m.profile)
			if err == nil && len(extracted) > 0 {
				quotes = extracted
				m.emit(EventQuotesFound, runID, StageQuoteResults, fmt.Sprintf("%d quotes extracted via fallback", len(extracted)))
			}
		}
	}

	result.Success = true
	result.Quotes = quotes
	result.QuotesFound = len(quotes)
	result.CurrentStage = m.location(ctx)
	if result.CurrentStage == "" {
		result.CurrentStage = string(last.Stage)
	}
	if len(quotes) > 0 {
		result.Message = fmt.Sprintf("funnel completed, %d quotes found", len(quotes))
	} else {
		result.Message = "funnel completed, no quotes found"
	}
	m.emit(EventRunFinished, runID, last.Stage, result.Message)
	log.Printf("run %s: %s", runID, result.Message)
	return result
}

// finish folds a failed stage result into the run result, with a
// diagnostic screenshot of the page that refused to cooperate.
func (m *Machine) finish(ctx context.Context, result RunResult, last StageResult) RunResult {
	m.snapshot(ctx, last.Stage)
	result.Success = false
	result.Message = fmt.Sprintf("stopped at %s: %s", last.Stage, last.Message)
	result.CurrentStage = last.Location
	if result.CurrentStage == "" {
		result.CurrentStage = m.location(ctx)
	}
	if last.Err != nil {
		result.Errors = append(result.Errors, last.Err.Error())
	}
	m.emit(EventRunFinished, result.RunID, last.Stage, result.Message)
	log.Printf("run %s failed: %s", result.RunID, result.Message)
	return result
}

// handlerTable wires each stage to its handler. One handler per stage; the
// optional stages are simply never dispatched when the funnel skips them.
func (m *Machine) handlerTable(s *session) map[Stage]func(context.Context) StageResult {
	return map[Stage]func(context.Context) StageResult{
		StagePersonalInfo:    s.handlePersonalInfo,
		StageVehicleLookup:   s.handleVehicleLookup,
		StageVinEntry:        s.handleVinEntry,
		StageVehicleDetails:  s.handleVehicleDetails,
		StageVehicleUsage:    s.handleVehicleUsage,
		StageVehicleList:     s.handleVehicleList,
		StageDriverInfo:      s.handleDriverInfo,
		StageDriverList:      s.handleDriverList,
		StagePolicyInfo:      s.handlePolicyInfo,
		StageCoverageOptions: s.handleCoverageOptions,
		StagePropertyInfo:    s.handlePropertyInfo,
		StageQuoteResults:    s.handleQuoteResults,
		StageContactMethod:   s.handleContactMethod,
		StageAlsoInterested:  s.handleAlsoInterested,
		StageThankYou:        s.handleThankYou,
	}
}

// session is the per-run working state shared by the stage handlers.
type session struct {
	eng     *Engine
	sel     *Selectors
	profile *SiteProfile
	req     *QuoteRequest
	caps    Capabilities
	waitFor time.Duration

	vehicleCursor int // next vehicle to enter on a list loop
	driverCursor  int // next non-primary driver to enter
}

func (s *session) location(ctx context.Context) string {
	loc, err := s.eng.Driver().Location(ctx)
	if err != nil {
		return ""
	}
	return loc
}

// setIfVisible populates a field only when its panel is actually showing.
// Conditional sub-panels are driven by page state, not by whether the
// caller supplied data.
func (s *session) setIfVisible(ctx context.Context, selector, value string) {
	if value == "" || selector == "" {
		return
	}
	visible, err := s.eng.Driver().Visible(ctx, selector)
	if err != nil || !visible {
		return
	}
	if !s.eng.SetText(ctx, selector, value) {
		log.Printf("optional field %s could not be set, continuing", selector)
	}
}

// selectIfVisible is setIfVisible for dropdowns.
func (s *session) selectIfVisible(ctx context.Context, selector, value string) {
	if value == "" || selector == "" {
		return
	}
	visible, err := s.eng.Driver().Visible(ctx, selector)
	if err != nil || !visible {
		return
	}
	if err := s.eng.Select(ctx, selector, value); err != nil {
		log.Printf("optional select %s: %v, continuing", selector, err)
	}
}
