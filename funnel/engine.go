package funnel

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"quote-funnel-go/browser"
)

// Engine is the low-level interaction layer every stage handler works
// through. It knows nothing about funnel semantics; it only knows how to
// act on a live page without tripping over half-loaded controls.
type Engine struct {
	drv       browser.Driver
	jitterMin time.Duration
	jitterMax time.Duration
	typeDelay time.Duration
	pollEvery time.Duration
	rng       *rand.Rand
}

// EngineOptions tunes pacing and polling. Zero values get sane defaults.
type EngineOptions struct {
	JitterMin time.Duration
	JitterMax time.Duration
	TypeDelay time.Duration
	PollEvery time.Duration
}

// NewEngine wraps a driver with pacing and verification behaviour.
func NewEngine(drv browser.Driver, opts EngineOptions) *Engine {
	if opts.JitterMin <= 0 {
		opts.JitterMin = 400 * time.Millisecond
	}
	if opts.JitterMax <= opts.JitterMin {
		opts.JitterMax = opts.JitterMin + time.Second
	}
	if opts.TypeDelay <= 0 {
		opts.TypeDelay = 35 * time.Millisecond
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = 250 * time.Millisecond
	}
	return &Engine{
		drv:       drv,
		jitterMin: opts.JitterMin,
		jitterMax: opts.JitterMax,
		typeDelay: opts.TypeDelay,
		pollEvery: opts.PollEvery,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Driver exposes the underlying driver for callers that need raw page
// access (quote extraction, screenshots).
func (e *Engine) Driver() browser.Driver { return e.drv }

// pause sleeps for a randomized interval after a successful interaction,
// imitating human pacing between form actions.
func (e *Engine) pause(ctx context.Context) {
	span := e.jitterMax - e.jitterMin
	d := e.jitterMin + time.Duration(e.rng.Int63n(int64(span)))
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Probe gathers the element's interaction facts in one pass.
func (e *Engine) Probe(ctx context.Context, selector string) (ElementProbe, error) {
	var p ElementProbe
	var err error
	if p.Exists, err = e.drv.Exists(ctx, selector); err != nil {
		return p, err
	}
	if !p.Exists {
		return p, nil
	}
	if p.Visible, err = e.drv.Visible(ctx, selector); err != nil {
		return p, err
	}
	if p.Enabled, err = e.drv.Enabled(ctx, selector); err != nil {
		return p, err
	}
	if p.InViewport, err = e.drv.InViewport(ctx, selector); err != nil {
		return p, err
	}
	return p, nil
}

// SetText clears the field, types the value character by character so the
// page's own input handlers fire, then reads the field back to verify.
// It reports outcome as a boolean so callers can treat optional fields as
// non-fatal.
func (e *Engine) SetText(ctx context.Context, selector, value string) bool {
	if err := e.drv.ClearValue(ctx, selector); err != nil {
		log.Printf("set-text %s: clear failed: %v", selector, err)
		return false
	}
	if err := e.drv.TypeText(ctx, selector, value, e.typeDelay); err != nil {
		log.Printf("set-text %s: type failed: %v", selector, err)
		return false
	}
	got, err := e.drv.Value(ctx, selector)
	if err != nil {
		log.Printf("set-text %s: readback failed: %v", selector, err)
		return false
	}
	if got != value {
		log.Printf("set-text %s: verify failed: want %q, field holds %q", selector, value, got)
		return false
	}
	e.pause(ctx)
	return true
}

// Select picks a dropdown option for the desired value. Match policy is
// two-tier: exact case-insensitive on option text or value first, then
// substring in either direction. Dependent dropdowns are populated from
// free-text catalog data, so caller input rarely matches exactly.
func (e *Engine) Select(ctx context.Context, selector, desired string) error {
	opts, err := e.drv.Options(ctx, selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}

	want := strings.ToLower(strings.TrimSpace(desired))

	for _, o := range opts {
		if strings.ToLower(strings.TrimSpace(o.Text)) == want ||
			strings.ToLower(strings.TrimSpace(o.Value)) == want {
			if err := e.drv.SelectByValue(ctx, selector, o.Value); err != nil {
				return err
			}
			e.pause(ctx)
			return nil
		}
	}

	for _, o := range opts {
		text := strings.ToLower(strings.TrimSpace(o.Text))
		val := strings.ToLower(strings.TrimSpace(o.Value))
		if text == "" && val == "" {
			continue
		}
		if containsEither(text, want) || containsEither(val, want) {
			if err := e.drv.SelectByValue(ctx, selector, o.Value); err != nil {
				return err
			}
			e.pause(ctx)
			return nil
		}
	}

	texts := make([]string, 0, len(opts))
	for _, o := range opts {
		texts = append(texts, o.Text)
	}
	return &AmbiguousOptionError{Selector: selector, Wanted: desired, Options: texts}
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// WaitReady polls the predicate until it reports true or the timeout
// elapses. A timed-out wait fails only the operation that issued it; the
// caller decides whether that is fatal.
func (e *Engine) WaitReady(ctx context.Context, timeout time.Duration, pred func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		ok, err := pred(waitCtx)
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: condition not met within %v", browser.ErrTimeout, timeout)
		}
		select {
		case <-time.After(e.pollEvery):
		case <-waitCtx.Done():
			return fmt.Errorf("%w: condition not met within %v", browser.ErrTimeout, timeout)
		}
	}
}

// OptionsPopulated is a readiness predicate for dependent dropdowns: true
// once the select holds more than one option (the placeholder alone means
// the page is still loading the catalog).
func (e *Engine) OptionsPopulated(selector string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		opts, err := e.drv.Options(ctx, selector)
		if err != nil {
			return false, err
		}
		return len(opts) > 1, nil
	}
}

// ControlEnabled is a readiness predicate for continue buttons the page
// enables once its own validation passes.
func (e *Engine) ControlEnabled(selector string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		return e.drv.Enabled(ctx, selector)
	}
}

// ElementVisible is a readiness predicate for panels that appear
// asynchronously.
func (e *Engine) ElementVisible(selector string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		return e.drv.Visible(ctx, selector)
	}
}

// clickStrategy is one rung of the click fallback ladder.
type clickStrategy struct {
	name string
	run  func(context.Context, string) error
}

// Click drives the multi-strategy click ladder: probe first, scroll into
// view if needed, then try each strategy in order and stop at the first
// that succeeds. Strategy failures are all preserved for diagnostics.
func (e *Engine) Click(ctx context.Context, selector string) error {
	return e.click(ctx, selector, false)
}

// ClickSubmit is Click plus a final direct-form-submission fallback, for
// submit-type controls only.
func (e *Engine) ClickSubmit(ctx context.Context, selector string) error {
	return e.click(ctx, selector, true)
}

func (e *Engine) click(ctx context.Context, selector string, submit bool) error {
	probe, err := e.Probe(ctx, selector)
	if err != nil {
		return err
	}
	if !probe.Exists {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	if !probe.Visible {
		return fmt.Errorf("%w: %s is not visible", ErrElementNotInteractable, selector)
	}
	if !probe.Enabled {
		return fmt.Errorf("%w: %s is disabled", ErrElementNotInteractable, selector)
	}
	if !probe.InViewport {
		if err := e.drv.ScrollIntoView(ctx, selector); err != nil {
			return fmt.Errorf("scroll into view %s: %w", selector, err)
		}
	}

	strategies := []clickStrategy{
		{"direct click", e.drv.Click},
		{"script click", e.drv.ClickScript},
		{"mouse click at center", e.drv.ClickAt},
	}
	if submit {
		strategies = append(strategies, clickStrategy{"form submit", e.drv.Submit})
	}

	var attempts []ClickAttempt
	for _, s := range strategies {
		if err := s.run(ctx, selector); err != nil {
			attempts = append(attempts, ClickAttempt{Strategy: s.name, Err: err})
			continue
		}
		e.pause(ctx)
		return nil
	}
	return &ClickError{Selector: selector, Attempts: attempts}
}

// EnsureChecked drives the checkbox fallback ladder: direct toggle, then
// the associated label, then programmatic assignment with a change event.
func (e *Engine) EnsureChecked(ctx context.Context, selector, labelSelector string) error {
	if checked, err := e.drv.Checked(ctx, selector); err == nil && checked {
		return nil
	}

	if err := e.drv.Click(ctx, selector); err == nil {
		if checked, err := e.drv.Checked(ctx, selector); err == nil && checked {
			e.pause(ctx)
			return nil
		}
	}

	if labelSelector != "" {
		if err := e.drv.Click(ctx, labelSelector); err == nil {
			if checked, err := e.drv.Checked(ctx, selector); err == nil && checked {
				e.pause(ctx)
				return nil
			}
		}
	}

	if err := e.drv.SetChecked(ctx, selector, true); err != nil {
		return fmt.Errorf("%w: checkbox %s resisted all toggle strategies: %v", ErrElementNotInteractable, selector, err)
	}
	checked, err := e.drv.Checked(ctx, selector)
	if err != nil {
		return err
	}
	if !checked {
		return fmt.Errorf("%w: checkbox %s resisted all toggle strategies", ErrElementNotInteractable, selector)
	}
	e.pause(ctx)
	return nil
}

// Hover moves the pointer over the element, pacing afterwards like any
// other interaction.
func (e *Engine) Hover(ctx context.Context, selector string) error {
	if err := e.drv.Hover(ctx, selector); err != nil {
		return err
	}
	e.pause(ctx)
	return nil
}
