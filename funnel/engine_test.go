package funnel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quote-funnel-go/browser"
)

func TestSelectMatchPolicy(t *testing.T) {
	options := []browser.SelectOption{
		{Text: "-- choose --", Value: ""},
		{Text: "Civic Si", Value: "CIVIC_SI"},
		{Text: "Civic", Value: "CIVIC"},
		{Text: "Accord", Value: "ACCORD"},
	}

	tests := []struct {
		name    string
		desired string
		want    string
	}{
		{"exact text beats substring", "civic", "CIVIC"},
		{"exact value match", "ACCORD", "ACCORD"},
		{"substring when no exact", "Si", "CIVIC_SI"},
		{"option containing input", "civic s", "CIVIC_SI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
				"#model": {options: options},
			}})
			eng := testEngine(drv)

			if err := eng.Select(context.Background(), "#model", tt.desired); err != nil {
				t.Fatalf("Select(%q) failed: %v", tt.desired, err)
			}
			if got := drv.el("#model").selected; got != tt.want {
				t.Errorf("Select(%q) picked %q, want %q", tt.desired, got, tt.want)
			}
		})
	}
}

func TestSelectAmbiguousEnumeratesOptions(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#make": {options: []browser.SelectOption{
			{Text: "Honda", Value: "HONDA"},
			{Text: "Ford", Value: "FORD"},
		}},
	}})
	eng := testEngine(drv)

	err := eng.Select(context.Background(), "#make", "toyotaa")
	if err == nil {
		t.Fatal("expected error for unmatched option")
	}
	var ambErr *AmbiguousOptionError
	if !errors.As(err, &ambErr) {
		t.Fatalf("got %T, want *AmbiguousOptionError", err)
	}
	for _, want := range []string{"Honda", "Ford"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not enumerate option %q", err.Error(), want)
		}
	}
}

func TestSetTextIdempotent(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#email": {},
	}})
	eng := testEngine(drv)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !eng.SetText(ctx, "#email", "jane@example.com") {
			t.Fatalf("SetText attempt %d failed", i+1)
		}
	}
	if got := drv.el("#email").value; got != "jane@example.com" {
		t.Errorf("field holds %q after two sets, want single value", got)
	}
}

func TestSetTextReportsMissingField(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{}})
	eng := testEngine(drv)

	if eng.SetText(context.Background(), "#nope", "x") {
		t.Error("SetText succeeded on a missing element")
	}
}

func TestClickSucceedsOnThirdStrategy(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#next": {failDirect: true, failScript: true},
	}})
	eng := testEngine(drv)

	if err := eng.Click(context.Background(), "#next"); err != nil {
		t.Fatalf("Click failed despite working third strategy: %v", err)
	}
	tried := drv.el("#next").tried
	want := []string{"direct", "script", "at"}
	if len(tried) != len(want) {
		t.Fatalf("tried %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Errorf("strategy %d was %q, want %q", i, tried[i], want[i])
		}
	}
}

func TestClickFailureAggregatesAllStrategies(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#stuck": {failDirect: true, failScript: true, failAt: true},
	}})
	eng := testEngine(drv)

	err := eng.Click(context.Background(), "#stuck")
	var clickErr *ClickError
	if !errors.As(err, &clickErr) {
		t.Fatalf("got %T, want *ClickError", err)
	}
	if len(clickErr.Attempts) != 3 {
		t.Errorf("aggregated %d attempts, want 3", len(clickErr.Attempts))
	}
}

func TestClickRefusesDisabledElement(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#off": {disabled: true},
	}})
	eng := testEngine(drv)

	err := eng.Click(context.Background(), "#off")
	if !errors.Is(err, ErrElementNotInteractable) {
		t.Errorf("got %v, want ErrElementNotInteractable", err)
	}
	if len(drv.el("#off").tried) != 0 {
		t.Error("click strategies ran against a disabled element")
	}
}

func TestClickScrollsOffScreenElement(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#below": {offScreen: true},
	}})
	eng := testEngine(drv)

	if err := eng.Click(context.Background(), "#below"); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if drv.el("#below").offScreen {
		t.Error("element was not scrolled into view before clicking")
	}
}

func TestEnsureCheckedFallsBackToLabel(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#agree":             {checkbox: true, failDirect: true},
		"label[for='agree']": {},
	}})
	// The label click flips the checkbox on real pages.
	drv.el("label[for='agree']").onClick = func() {
		drv.el("#agree").checked = true
	}
	eng := testEngine(drv)

	if err := eng.EnsureChecked(context.Background(), "#agree", "label[for='agree']"); err != nil {
		t.Fatalf("EnsureChecked failed: %v", err)
	}
	if !drv.el("#agree").checked {
		t.Error("checkbox left unchecked")
	}
}

func TestWaitReadyTimesOut(t *testing.T) {
	drv := newFakeDriver(fakePage{elements: map[string]*fakeElement{
		"#slow": {options: []browser.SelectOption{{Text: "-- choose --"}}},
	}})
	eng := testEngine(drv)

	err := eng.WaitReady(context.Background(), 20*time.Millisecond, eng.OptionsPopulated("#slow"))
	if !errors.Is(err, browser.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}
