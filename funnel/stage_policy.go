package funnel

import (
	"context"
	"log"
	"strings"
)

// handlePolicyInfo populates prior-insurance history. The page branches on
// the insured radio: prior-carrier detail when insured, a reason code when
// not.
func (s *session) handlePolicyInfo(ctx context.Context) StageResult {
	const stage = StagePolicyInfo
	p := s.req.Policy

	if p.CurrentlyInsured {
		if err := s.eng.Click(ctx, s.sel.InsuredYes); err != nil {
			return failResult(stage, s.location(ctx), "could not mark currently insured", err)
		}
		s.selectIfVisible(ctx, s.sel.PriorCarrier, p.PriorCarrier)
		s.selectIfVisible(ctx, s.sel.PriorDuration, p.PriorDuration)
		s.setIfVisible(ctx, s.sel.PriorExpiry, p.PriorExpiry)
		s.selectIfVisible(ctx, s.sel.PriorPayment, p.PriorPayment)
	} else {
		if err := s.eng.Click(ctx, s.sel.InsuredNo); err != nil {
			return failResult(stage, s.location(ctx), "could not mark not insured", err)
		}
		s.selectIfVisible(ctx, s.sel.NoInsuranceReason, p.NoInsuranceReason)
	}

	if p.StartDate != "" {
		s.setIfVisible(ctx, s.sel.PolicyStartDate, p.StartDate)
	}

	if err := s.eng.ClickSubmit(ctx, s.sel.PolicyNext); err != nil {
		return failResult(stage, s.location(ctx), "could not continue past policy info", err)
	}
	return okResult(stage, s.location(ctx), "policy info entered")
}

// handleCoverageOptions picks a coverage package. The caller's preference
// word maps onto the page's three fixed package cards; anything unmapped
// lands on the standard package.
func (s *session) handleCoverageOptions(ctx context.Context) StageResult {
	const stage = StageCoverageOptions

	target := s.sel.PackageStandard
	switch strings.ToLower(strings.TrimSpace(s.req.Policy.CoveragePackage)) {
	case "basic", "minimum", "liability":
		target = s.sel.PackageBasic
	case "optimal", "premium", "full":
		target = s.sel.PackageOptimal
	case "standard", "":
	default:
		log.Printf("unknown coverage package %q, defaulting to standard", s.req.Policy.CoveragePackage)
	}

	if err := s.eng.Click(ctx, target); err != nil {
		return failResult(stage, s.location(ctx), "could not pick coverage package", err)
	}
	if err := s.eng.ClickSubmit(ctx, s.sel.CoverageNext); err != nil {
		return failResult(stage, s.location(ctx), "could not continue past coverage options", err)
	}
	return okResult(stage, s.location(ctx), "coverage package selected")
}

// handlePropertyInfo answers the property cross-sell question. Interest
// reveals a residence panel; its fields are populated only while showing.
func (s *session) handlePropertyInfo(ctx context.Context) StageResult {
	const stage = StagePropertyInfo
	p := s.req.Policy

	choice := s.sel.PropertyNo
	if p.WantsPropertyQuote {
		choice = s.sel.PropertyYes
	}
	if err := s.eng.Click(ctx, choice); err != nil {
		return failResult(stage, s.location(ctx), "could not answer property interest", err)
	}

	if p.WantsPropertyQuote {
		if visible, err := s.eng.Driver().Visible(ctx, s.sel.ResidencePanel); err == nil && visible {
			s.selectIfVisible(ctx, s.sel.ResidenceStatus, p.ResidenceStatus)
			s.selectIfVisible(ctx, s.sel.ResidenceType, p.ResidenceType)
		}
	}

	if err := s.eng.ClickSubmit(ctx, s.sel.PropertyNext); err != nil {
		return failResult(stage, s.location(ctx), "could not continue past property info", err)
	}
	return okResult(stage, s.location(ctx), "property info entered")
}
