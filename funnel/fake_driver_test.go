package funnel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quote-funnel-go/browser"
)

// fakeElement is one element on a fake page. Zero value is an ordinary
// visible, enabled, in-viewport element.
type fakeElement struct {
	hidden     bool
	disabled   bool
	offScreen  bool
	checkbox   bool
	value      string
	checked    bool
	text       string
	options    []browser.SelectOption
	selected   string
	failDirect bool
	failScript bool
	failAt     bool
	onClick    func()
	tried      []string
}

// fakePage is a snapshot the fake driver can display.
type fakePage struct {
	location string
	elements map[string]*fakeElement
	html     string
	pageText string
}

// fakeDriver resolves every suspension point synchronously, which is what
// makes funnel runs deterministic under test.
type fakeDriver struct {
	mu          sync.Mutex
	page        fakePage
	navigations []string
}

func newFakeDriver(start fakePage) *fakeDriver {
	return &fakeDriver{page: start}
}

func (d *fakeDriver) load(p fakePage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.page = p
}

func (d *fakeDriver) el(selector string) *fakeElement {
	return d.page.elements[selector]
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigations = append(d.navigations, url)
	return nil
}

func (d *fakeDriver) Location(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page.location, nil
}

func (d *fakeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.el(selector) != nil, nil
}

func (d *fakeDriver) Visible(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	return el != nil && !el.hidden, nil
}

func (d *fakeDriver) Enabled(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	return el != nil && !el.disabled, nil
}

func (d *fakeDriver) InViewport(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	return el != nil && !el.offScreen, nil
}

func (d *fakeDriver) ScrollIntoView(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el := d.el(selector); el != nil {
		el.offScreen = false
		return nil
	}
	return fmt.Errorf("no element %s", selector)
}

func (d *fakeDriver) Value(ctx context.Context, selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return "", fmt.Errorf("no element %s", selector)
	}
	return el.value, nil
}

func (d *fakeDriver) SetValue(ctx context.Context, selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return fmt.Errorf("no element %s", selector)
	}
	el.value = value
	return nil
}

func (d *fakeDriver) ClearValue(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return fmt.Errorf("no element %s", selector)
	}
	el.value = ""
	return nil
}

// TypeText appends, the way real key events do. SetText's clear step is what
// keeps repeated calls from concatenating.
func (d *fakeDriver) TypeText(ctx context.Context, selector, text string, perKeyDelay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return fmt.Errorf("no element %s", selector)
	}
	el.value += text
	return nil
}

func (d *fakeDriver) Options(ctx context.Context, selector string) ([]browser.SelectOption, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return nil, fmt.Errorf("no element %s", selector)
	}
	return el.options, nil
}

func (d *fakeDriver) SelectByValue(ctx context.Context, selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return fmt.Errorf("no element %s", selector)
	}
	el.selected = value
	el.value = value
	return nil
}

func (d *fakeDriver) SetChecked(ctx context.Context, selector string, checked bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return fmt.Errorf("no element %s", selector)
	}
	el.checked = checked
	return nil
}

func (d *fakeDriver) Checked(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return false, fmt.Errorf("no element %s", selector)
	}
	return el.checked, nil
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	return d.clickWith(selector, "direct")
}

func (d *fakeDriver) ClickScript(ctx context.Context, selector string) error {
	return d.clickWith(selector, "script")
}

func (d *fakeDriver) ClickAt(ctx context.Context, selector string) error {
	return d.clickWith(selector, "at")
}

func (d *fakeDriver) Submit(ctx context.Context, selector string) error {
	return d.clickWith(selector, "submit")
}

func (d *fakeDriver) clickWith(selector, strategy string) error {
	d.mu.Lock()
	el := d.el(selector)
	if el == nil {
		d.mu.Unlock()
		return fmt.Errorf("no element %s", selector)
	}
	el.tried = append(el.tried, strategy)
	fail := (strategy == "direct" && el.failDirect) ||
		(strategy == "script" && el.failScript) ||
		(strategy == "at" && el.failAt)
	if fail {
		d.mu.Unlock()
		return fmt.Errorf("%s click refused on %s", strategy, selector)
	}
	if el.checkbox {
		el.checked = !el.checked
	}
	hook := el.onClick
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (d *fakeDriver) Hover(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.el(selector) == nil {
		return fmt.Errorf("no element %s", selector)
	}
	return nil
}

func (d *fakeDriver) Text(ctx context.Context, selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.el(selector)
	if el == nil {
		return "", fmt.Errorf("no element %s", selector)
	}
	return el.text, nil
}

func (d *fakeDriver) HTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page.html, nil
}

func (d *fakeDriver) PageText(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page.pageText, nil
}

func (d *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (d *fakeDriver) Close(ctx context.Context) error { return nil }

// testEngine wraps a fake driver with pacing turned down to nothing.
func testEngine(drv browser.Driver) *Engine {
	return NewEngine(drv, EngineOptions{
		JitterMin: time.Microsecond,
		JitterMax: 2 * time.Microsecond,
		TypeDelay: time.Microsecond,
		PollEvery: 2 * time.Millisecond,
	})
}
