package funnel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TagLikelyCoverageLimit marks fallback-extracted currency values outside
// the plausible premium window. They are reported, not discarded, because
// a recalibrated window may reclassify them.
const TagLikelyCoverageLimit = "likely_coverage_limit"

var (
	currencyPattern  = regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)
	quotedIdentifier = regexp.MustCompile(`'([^']+)'`)
)

// ExtractQuotes turns a rendered results page into structured quote
// records. Primary strategy reads the site's dedicated quote panels;
// when none exist, a currency scan over the whole page text picks up
// whatever priced values are showing. An empty page yields an empty
// slice, never an error.
func ExtractQuotes(html string, profile *SiteProfile) ([]QuoteRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("quotes: parse page: %w", err)
	}

	sel := &profile.Selectors
	panels := doc.Find(sel.QuotePanel)
	if panels.Length() > 0 {
		return quotesFromPanels(panels, sel), nil
	}
	return quotesFromCurrencyScan(doc, profile), nil
}

func quotesFromPanels(panels *goquery.Selection, sel *Selectors) []QuoteRecord {
	var quotes []QuoteRecord
	panels.Each(func(i int, panel *goquery.Selection) {
		price := strings.TrimSpace(panel.Find(sel.QuotePrice).First().Text())
		if price == "" {
			return
		}
		// Skipped panels still occupy a page position, so the selection
		// index counts emitted records, not panels walked.
		q := QuoteRecord{
			Price:          price,
			Term:           strings.TrimSpace(panel.Find(sel.QuoteTerm).First().Text()),
			Vehicle:        strings.TrimSpace(panel.Find(sel.QuoteVehicle).First().Text()),
			Carrier:        carrierFromPanel(panel, sel),
			SelectionIndex: len(quotes),
			panelIndex:     i,
		}
		panel.Find(sel.CoverageRow).Each(func(_ int, row *goquery.Selection) {
			title := strings.TrimSpace(row.Find(sel.CoverageTitle).First().Text())
			value := strings.TrimSpace(row.Find(sel.CoverageValue).First().Text())
			if title == "" && value == "" {
				return
			}
			q.Coverages = append(q.Coverages, CoverageItem{Title: title, Value: value})
		})
		quotes = append(quotes, q)
	})
	return quotes
}

// carrierFromPanel digs the carrier name out of the select button. The site
// does not label the carrier anywhere readable; it only appears as the first
// argument of the button's inline action handler, or as a data attribute on
// newer markup.
func carrierFromPanel(panel *goquery.Selection, sel *Selectors) string {
	btn := panel.Find(sel.QuoteCarrierBtn).First()
	if carrier, ok := btn.Attr("data-carrier"); ok && carrier != "" {
		return strings.TrimSpace(carrier)
	}
	if action, ok := btn.Attr("onclick"); ok {
		if m := quotedIdentifier.FindStringSubmatch(action); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// quotesFromCurrencyScan is the secondary strategy: every currency token in
// the page text becomes a candidate, classified against the plausible
// premium window.
func quotesFromCurrencyScan(doc *goquery.Document, profile *SiteProfile) []QuoteRecord {
	tokens := currencyPattern.FindAllString(doc.Text(), -1)
	var quotes []QuoteRecord
	for i, token := range tokens {
		q := QuoteRecord{Price: token, SelectionIndex: i, panelIndex: i}
		if v, ok := currencyValue(token); !ok || v <= profile.PremiumMin || v >= profile.PremiumMax {
			q.Tag = TagLikelyCoverageLimit
		}
		quotes = append(quotes, q)
	}
	return quotes
}

func currencyValue(token string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(token)
	v, err := strconv.ParseFloat(cleaned, 64)
	return v, err == nil
}
