package funnel

import (
	"fmt"
	"strings"
	"testing"
)

func panelHTML(price, term, carrier, vehicle string) string {
	return fmt.Sprintf(`<div class="quote-panel">
		<span class="quote-price">%s</span>
		<span class="quote-term">%s</span>
		<span class="quote-vehicle">%s</span>
		<div class="coverage-row">
			<span class="coverage-title">Bodily Injury</span>
			<span class="coverage-value">$50,000 / $100,000</span>
		</div>
		<button class="btn-select-quote" onclick="selectQuote('%s', 0)">Select</button>
	</div>`, price, term, vehicle, carrier)
}

func TestExtractQuotesFromPanels(t *testing.T) {
	prices := []string{"$82.10", "$97.45", "$104.00"}
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, p := range prices {
		b.WriteString(panelHTML(p, "per month", fmt.Sprintf("Carrier %d", i), "2020 Honda Civic"))
	}
	b.WriteString("</body></html>")

	quotes, err := ExtractQuotes(b.String(), DefaultSiteProfile())
	if err != nil {
		t.Fatalf("ExtractQuotes: %v", err)
	}
	if len(quotes) != len(prices) {
		t.Fatalf("extracted %d quotes, want %d", len(quotes), len(prices))
	}
	for i, q := range quotes {
		if q.Price != prices[i] {
			t.Errorf("quote %d price = %q, want %q (panel order broken)", i, q.Price, prices[i])
		}
		if q.SelectionIndex != i {
			t.Errorf("quote %d selectionIndex = %d", i, q.SelectionIndex)
		}
		if q.Carrier != fmt.Sprintf("Carrier %d", i) {
			t.Errorf("quote %d carrier = %q", i, q.Carrier)
		}
		if len(q.Coverages) != 1 || q.Coverages[0].Title != "Bodily Injury" {
			t.Errorf("quote %d coverages = %+v", i, q.Coverages)
		}
	}
}

func TestExtractQuotesSkipsUnpricedPanels(t *testing.T) {
	html := `<html><body>` +
		panelHTML("$75.00", "per month", "Acme", "2020 Honda Civic") +
		`<div class="quote-panel"><span class="quote-price"></span></div>` +
		`</body></html>`

	quotes, err := ExtractQuotes(html, DefaultSiteProfile())
	if err != nil {
		t.Fatalf("ExtractQuotes: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("extracted %d quotes, want the one priced panel", len(quotes))
	}
}

func TestExtractQuotesReindexesAroundUnpricedPanels(t *testing.T) {
	html := `<html><body>` +
		`<div class="quote-panel"><span class="quote-price"></span></div>` +
		panelHTML("$112.00", "per month", "Acme", "2020 Honda Civic") +
		panelHTML("$130.25", "per month", "Globex", "2020 Honda Civic") +
		`</body></html>`

	quotes, err := ExtractQuotes(html, DefaultSiteProfile())
	if err != nil {
		t.Fatalf("ExtractQuotes: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("extracted %d quotes, want 2 priced panels", len(quotes))
	}
	for i, q := range quotes {
		if q.SelectionIndex != i {
			t.Errorf("quote %d selectionIndex = %d, want indexes dense over returned records", i, q.SelectionIndex)
		}
		if q.SelectionIndex >= len(quotes) {
			t.Errorf("quote %d selectionIndex = %d with only %d quotes found", i, q.SelectionIndex, len(quotes))
		}
	}
	if quotes[0].panelIndex != 1 || quotes[1].panelIndex != 2 {
		t.Errorf("panel positions = %d, %d, want 1 and 2 (unpriced panel occupies position 0)",
			quotes[0].panelIndex, quotes[1].panelIndex)
	}
}

func TestExtractQuotesCurrencyScanFallback(t *testing.T) {
	html := `<html><body>
		<p>Your estimated premium is $128.50 per month.</p>
		<p>Includes up to $100,000 in property damage coverage.</p>
		<p>A minimal plan starts at $42.00.</p>
	</body></html>`

	quotes, err := ExtractQuotes(html, DefaultSiteProfile())
	if err != nil {
		t.Fatalf("ExtractQuotes: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("extracted %d candidates, want all 3 currency tokens", len(quotes))
	}

	tests := []struct {
		price string
		tag   string
	}{
		{"$128.50", ""},
		{"$100,000", TagLikelyCoverageLimit},
		{"$42.00", TagLikelyCoverageLimit},
	}
	for i, tt := range tests {
		if quotes[i].Price != tt.price {
			t.Errorf("candidate %d price = %q, want %q", i, quotes[i].Price, tt.price)
		}
		if quotes[i].Tag != tt.tag {
			t.Errorf("candidate %d (%s) tag = %q, want %q", i, tt.price, quotes[i].Tag, tt.tag)
		}
	}
}

func TestExtractQuotesEmptyPage(t *testing.T) {
	quotes, err := ExtractQuotes("<html><body><p>Still working on it...</p></body></html>", DefaultSiteProfile())
	if err != nil {
		t.Fatalf("ExtractQuotes: %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("extracted %d quotes from an empty page", len(quotes))
	}
}
