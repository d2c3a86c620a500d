package funnel

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// handlePersonalInfo works the funnel's entry page: applicant identity,
// contact and address fields, the disclosure agreement, and the submit. The
// page re-renders after submit into one of three shapes -- validation
// errors, an address-confirmation interstitial, or the next stage -- and
// the handler classifies which one it got.
func (s *session) handlePersonalInfo(ctx context.Context) StageResult {
	const stage = StagePersonalInfo
	a := s.req.Applicant

	required := []struct {
		selector string
		value    string
		label    string
	}{
		{s.sel.FirstName, a.FirstName, "first name"},
		{s.sel.LastName, a.LastName, "last name"},
		{s.sel.Street, a.Street, "street"},
		{s.sel.City, a.City, "city"},
		{s.sel.Zip, a.Zip, "zip"},
		{s.sel.Email, a.Email, "email"},
		{s.sel.Phone, a.Phone, "phone"},
	}
	for _, f := range required {
		if !s.eng.SetText(ctx, f.selector, f.value) {
			return failResult(stage, s.location(ctx),
				fmt.Sprintf("could not fill %s field", f.label), ErrElementNotInteractable)
		}
	}
	s.setIfVisible(ctx, s.sel.Unit, a.Unit)

	// The state dropdown carries full state names; the caller supplies the
	// 2-letter code.
	if err := s.eng.Select(ctx, s.sel.StateSelect, StateName(a.State)); err != nil {
		return failResult(stage, s.location(ctx),
			fmt.Sprintf("could not select state %s", a.State), err)
	}

	s.selectIfVisible(ctx, s.sel.LeadSource, a.LeadSource)
	s.selectIfVisible(ctx, s.sel.YearsAtResidence, a.YearsAtResidence)

	if err := s.eng.EnsureChecked(ctx, s.sel.Agreement, s.sel.AgreementLabel); err != nil {
		return failResult(stage, s.location(ctx), "could not check disclosure agreement", err)
	}

	if err := s.eng.ClickSubmit(ctx, s.sel.PersonalSubmit); err != nil {
		return failResult(stage, s.location(ctx), "could not submit personal info", err)
	}

	return s.classifyPersonalSubmit(ctx)
}

// classifyPersonalSubmit inspects the page the submit produced. Validation
// errors and the address interstitial both keep the location on the entry
// page, so the page content decides, not the URL.
func (s *session) classifyPersonalSubmit(ctx context.Context) StageResult {
	const stage = StagePersonalInfo

	// Give the page a moment to re-render before reading it.
	deadline := time.Now().Add(s.waitFor)
	for {
		if msgs := s.visibleErrorMessages(ctx); len(msgs) > 0 {
			return failResult(stage, s.location(ctx),
				"form rejected: "+strings.Join(msgs, "; "), ErrElementNotInteractable)
		}

		if visible, err := s.eng.Driver().Visible(ctx, s.sel.AddressConfirmMarker); err == nil && visible {
			log.Printf("address confirmation interstitial shown, using suggested address")
			if err := s.eng.Click(ctx, s.sel.AddressConfirmContinue); err != nil {
				return failResult(stage, s.location(ctx), "could not accept suggested address", err)
			}
			return okResult(stage, s.location(ctx), "personal info submitted via suggested address")
		}

		if exists, err := s.eng.Driver().Exists(ctx, s.sel.PersonalSubmit); err == nil && !exists {
			return okResult(stage, s.location(ctx), "personal info submitted")
		}

		if time.Now().After(deadline) {
			// Still on the entry page with no visible rejection. Treat as
			// advanced; detection of the next stage is the real arbiter.
			return okResult(stage, s.location(ctx), "personal info submitted")
		}
		select {
		case <-time.After(s.eng.pollEvery):
		case <-ctx.Done():
			return okResult(stage, s.location(ctx), "personal info submitted")
		}
	}
}

// visibleErrorMessages collects every validation message the page is
// showing. The page renders them as multiple small elements, so this scans
// the rendered HTML rather than reading one element's text.
func (s *session) visibleErrorMessages(ctx context.Context) []string {
	html, err := s.eng.Driver().HTML(ctx)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var msgs []string
	doc.Find(s.sel.ErrorMessages).Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			msgs = append(msgs, text)
		}
	})
	return msgs
}
