package funnel

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// handleQuoteResults waits for a priced quote panel, optionally reorders
// and selects, and harvests the quotes. Extraction happens before any
// selection click so the records describe the page as first rendered.
func (s *session) handleQuoteResults(ctx context.Context) StageResult {
	const stage = StageQuoteResults
	p := s.req.Policy

	// Panels render before their prices arrive; wait for a priced one.
	err := s.eng.WaitReady(ctx, s.waitFor, func(ctx context.Context) (bool, error) {
		text, err := s.eng.Driver().Text(ctx, s.sel.QuotePrice)
		if err != nil {
			return false, err
		}
		return strings.Contains(text, "$"), nil
	})
	if err != nil {
		log.Printf("no priced quote panel appeared: %v, extracting anyway", err)
	}

	if p.QuoteSort != "" {
		if err := s.eng.Select(ctx, s.sel.QuoteSort, p.QuoteSort); err != nil {
			log.Printf("quote sort %q: %v, keeping page order", p.QuoteSort, err)
		}
	}

	html, err := s.eng.Driver().HTML(ctx)
	if err != nil {
		return failResult(stage, s.location(ctx), "could not read results page", err)
	}
	quotes, err := ExtractQuotes(html, s.profile)
	if err != nil {
		return failResult(stage, s.location(ctx), "quote extraction", err)
	}
	log.Printf("extracted %d quotes", len(quotes))

	if p.SelectQuoteIndex != nil {
		if err := s.selectQuote(ctx, *p.SelectQuoteIndex, quotes); err != nil {
			return failResult(stage, s.location(ctx),
				fmt.Sprintf("could not select quote %d", *p.SelectQuoteIndex), err)
		}
	}

	res := okResult(stage, s.location(ctx), fmt.Sprintf("%d quotes extracted", len(quotes)))
	res.Quotes = quotes
	return res
}

// selectQuote clicks the chosen quote's select button, first hovering the
// competing panels the way a person comparing offers would. The caller's
// index counts extracted records; each record carries the panel position
// its button actually occupies, which also counts panels extraction
// skipped.
func (s *session) selectQuote(ctx context.Context, index int, quotes []QuoteRecord) error {
	if index < 0 || index >= len(quotes) {
		return fmt.Errorf("quote index %d out of range, %d quotes found", index, len(quotes))
	}

	target := quotes[index].panelIndex
	for _, q := range quotes {
		if q.panelIndex == target {
			continue
		}
		panel := fmt.Sprintf(s.sel.QuoteSelectNth, q.panelIndex+1)
		if err := s.eng.Hover(ctx, panel); err != nil {
			log.Printf("hover over quote %d: %v", q.SelectionIndex, err)
		}
	}
	return s.eng.Click(ctx, fmt.Sprintf(s.sel.QuoteSelectNth, target+1))
}

// handleContactMethod picks the contact option matching the caller's
// preference by the controls' visible text, falling back to position
// (first control is phone, second is email) when nothing matches.
func (s *session) handleContactMethod(ctx context.Context) StageResult {
	const stage = StageContactMethod

	want := strings.ToLower(strings.TrimSpace(s.req.Policy.ContactMethod))
	if want == "" {
		want = "phone"
	}

	nth := s.contactChoiceByText(ctx, want)
	if nth == 0 {
		// Positional fallback.
		nth = 1
		if want == "email" {
			nth = 2
		}
		log.Printf("no contact control mentions %q, using position %d", want, nth)
	}

	if err := s.eng.Click(ctx, fmt.Sprintf(s.sel.ContactChoiceNth, nth)); err != nil {
		return failResult(stage, s.location(ctx), "could not choose contact method", err)
	}
	return okResult(stage, s.location(ctx), "contact method chosen: "+want)
}

// contactChoiceByText finds the 1-based position of the contact control
// whose text mentions the preference. Zero means no textual match.
func (s *session) contactChoiceByText(ctx context.Context, want string) int {
	html, err := s.eng.Driver().HTML(ctx)
	if err != nil {
		return 0
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	nth := 0
	doc.Find(s.sel.ContactChoice).EachWithBreak(func(i int, el *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(el.Text()), want) {
			nth = i + 1
			return false
		}
		return true
	})
	return nth
}

// handleAlsoInterested declines the add-on offers and moves on.
func (s *session) handleAlsoInterested(ctx context.Context) StageResult {
	const stage = StageAlsoInterested

	if err := s.eng.Click(ctx, s.sel.DeclineOffers); err != nil {
		return failResult(stage, s.location(ctx), "could not decline add-on offers", err)
	}
	if visible, err := s.eng.Driver().Visible(ctx, s.sel.AlsoInterestedNext); err == nil && visible {
		if err := s.eng.ClickSubmit(ctx, s.sel.AlsoInterestedNext); err != nil {
			return failResult(stage, s.location(ctx), "could not continue past add-on offers", err)
		}
	}
	return okResult(stage, s.location(ctx), "add-on offers declined")
}

// completionPhrases are how the final page announces a finished submission.
var completionPhrases = []string{
	"thank you",
	"you're all set",
	"your quote request has been received",
	"an agent will contact you",
}

// handleThankYou classifies the terminal page by its text and closes out
// the run.
func (s *session) handleThankYou(ctx context.Context) StageResult {
	const stage = StageThankYou

	text, err := s.eng.Driver().PageText(ctx)
	if err != nil {
		return failResult(stage, s.location(ctx), "could not read final page", err)
	}
	lower := strings.ToLower(text)
	for _, phrase := range completionPhrases {
		if strings.Contains(lower, phrase) {
			return okResult(stage, s.location(ctx), "funnel complete: "+phrase)
		}
	}

	// The marker matched but the copy did not. Still terminal; note it.
	log.Printf("final page shown without recognized completion text")
	return okResult(stage, s.location(ctx), "funnel reached final page")
}
