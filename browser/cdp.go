package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// CDPDriver drives a locally launched Chrome instance through chromedp.
// One driver owns exactly one browser tab; the funnel runs a single
// sequential session, so there is no per-tab locking.
type CDPDriver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	connected   bool
}

// LaunchOptions controls how Chrome is started.
type LaunchOptions struct {
	Headless   bool
	ChromePath string
	UserAgent  string
}

// Launch starts a fresh Chrome process and opens one tab. The caller owns
// the returned driver and must Close it on every exit path.
func Launch(ctx context.Context, opts LaunchOptions) (*CDPDriver, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("browser: launch failed: %w", err)
	}

	return &CDPDriver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      tabCancel,
		connected:   true,
	}, nil
}

// run executes chromedp actions against the tab, honouring the caller's
// deadline and falling back to DefaultOpTimeout when there is none.
func (d *CDPDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	if !d.connected {
		return ErrNotConnected
	}
	opCtx := d.ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(opCtx, DefaultOpTimeout)
		defer cancel()
	} else {
		var cancel context.CancelFunc
		deadline, _ := ctx.Deadline()
		opCtx, cancel = context.WithDeadline(opCtx, deadline)
		defer cancel()
	}

	err := chromedp.Run(opCtx, actions...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}
	return ctx.Err()
}

// eval runs a JavaScript expression and unmarshals the result into out.
// Pass nil for side-effect-only scripts.
func (d *CDPDriver) eval(ctx context.Context, expr string, out interface{}) error {
	if out == nil {
		var discard interface{}
		return d.run(ctx, chromedp.Evaluate(expr, &discard))
	}
	return d.run(ctx, chromedp.Evaluate(expr, out))
}

// jsString encodes a Go string as a JavaScript string literal. Selectors
// routinely contain quotes, so plain Sprintf quoting is not safe.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (d *CDPDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigationFailed, url, err)
	}
	return nil
}

func (d *CDPDriver) Location(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, chromedp.Location(&url))
	return url, err
}

func (d *CDPDriver) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	err := d.eval(ctx, expr, &found)
	return found, err
}

func (d *CDPDriver) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	})()`, jsString(selector))
	err := d.eval(ctx, expr, &visible)
	return visible, err
}

func (d *CDPDriver) Enabled(ctx context.Context, selector string) (bool, error) {
	var enabled bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		if (el.disabled) return false;
		return el.getAttribute('aria-disabled') !== 'true';
	})()`, jsString(selector))
	err := d.eval(ctx, expr, &enabled)
	return enabled, err
}

func (d *CDPDriver) InViewport(ctx context.Context, selector string) (bool, error) {
	var in bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const rect = el.getBoundingClientRect();
		return rect.top >= 0 && rect.left >= 0 &&
			rect.bottom <= window.innerHeight && rect.right <= window.innerWidth;
	})()`, jsString(selector))
	err := d.eval(ctx, expr, &in)
	return in, err
}

func (d *CDPDriver) ScrollIntoView(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (el) el.scrollIntoView({block: 'center', inline: 'center'});
	})()`, jsString(selector))
	return d.eval(ctx, expr, nil)
}

func (d *CDPDriver) Value(ctx context.Context, selector string) (string, error) {
	var v string
	err := d.run(ctx, chromedp.Value(selector, &v, chromedp.ByQuery))
	return v, err
}

// SetValue assigns the value programmatically and fires the input/change
// events the page's own validation scripts listen for.
func (d *CDPDriver) SetValue(ctx context.Context, selector, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, jsString(selector), jsString(value))
	var ok bool
	if err := d.eval(ctx, expr, &ok); err != nil {
		return err
	}
	if !ok {
		return ErrElementNotFound
	}
	return nil
}

func (d *CDPDriver) ClearValue(ctx context.Context, selector string) error {
	return d.SetValue(ctx, selector, "")
}

// TypeText sends the text one key at a time so per-keystroke handlers on the
// page fire the same way they would for a human typist.
func (d *CDPDriver) TypeText(ctx context.Context, selector, text string, perKeyDelay time.Duration) error {
	if err := d.run(ctx, chromedp.Focus(selector, chromedp.ByQuery)); err != nil {
		return err
	}
	for _, r := range text {
		if err := d.run(ctx, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
		if perKeyDelay > 0 {
			select {
			case <-time.After(perKeyDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (d *CDPDriver) Options(ctx context.Context, selector string) ([]SelectOption, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el || !el.options) return [];
		return Array.from(el.options).map(o => ({text: o.textContent.trim(), value: o.value}));
	})()`, jsString(selector))
	var opts []SelectOption
	if err := d.eval(ctx, expr, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func (d *CDPDriver) SelectByValue(ctx context.Context, selector, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, jsString(selector), jsString(value))
	var ok bool
	if err := d.eval(ctx, expr, &ok); err != nil {
		return err
	}
	if !ok {
		return ErrElementNotFound
	}
	return nil
}

func (d *CDPDriver) SetChecked(ctx context.Context, selector string, checked bool) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.checked = %t;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, jsString(selector), checked)
	var ok bool
	if err := d.eval(ctx, expr, &ok); err != nil {
		return err
	}
	if !ok {
		return ErrElementNotFound
	}
	return nil
}

func (d *CDPDriver) Checked(ctx context.Context, selector string) (bool, error) {
	var checked bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return el ? !!el.checked : false;
	})()`, jsString(selector))
	err := d.eval(ctx, expr, &checked)
	return checked, err
}

func (d *CDPDriver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *CDPDriver) ClickScript(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, jsString(selector))
	var ok bool
	if err := d.eval(ctx, expr, &ok); err != nil {
		return err
	}
	if !ok {
		return ErrElementNotFound
	}
	return nil
}

// ClickAt dispatches a raw mouse click at the element's centre, for controls
// whose click handlers live on an overlay rather than the element itself.
func (d *CDPDriver) ClickAt(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return null;
		const r = el.getBoundingClientRect();
		return {x: r.left + r.width / 2, y: r.top + r.height / 2};
	})()`, jsString(selector))
	var center *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := d.eval(ctx, expr, &center); err != nil {
		return err
	}
	if center == nil {
		return ErrElementNotFound
	}
	press := input.DispatchMouseEvent(input.MousePressed, center.X, center.Y).
		WithButton(input.Left).WithClickCount(1)
	release := input.DispatchMouseEvent(input.MouseReleased, center.X, center.Y).
		WithButton(input.Left).WithClickCount(1)
	return d.run(ctx, press, release)
}

func (d *CDPDriver) Submit(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Submit(selector, chromedp.ByQuery))
}

func (d *CDPDriver) Hover(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
		el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: true}));
		return true;
	})()`, jsString(selector))
	var ok bool
	if err := d.eval(ctx, expr, &ok); err != nil {
		return err
	}
	if !ok {
		return ErrElementNotFound
	}
	return nil
}

func (d *CDPDriver) Text(ctx context.Context, selector string) (string, error) {
	var t string
	err := d.run(ctx, chromedp.Text(selector, &t, chromedp.ByQuery))
	return t, err
}

func (d *CDPDriver) HTML(ctx context.Context) (string, error) {
	var h string
	err := d.run(ctx, chromedp.OuterHTML("html", &h, chromedp.ByQuery))
	return h, err
}

func (d *CDPDriver) PageText(ctx context.Context) (string, error) {
	var t string
	err := d.eval(ctx, `document.body ? document.body.innerText : ''`, &t)
	return t, err
}

func (d *CDPDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

// Close tears down the tab and the browser process. Safe to call twice.
func (d *CDPDriver) Close(ctx context.Context) error {
	if !d.connected {
		return nil
	}
	d.connected = false
	d.cancel()
	d.allocCancel()
	return nil
}
