package funnel

import (
	"context"
	"strings"
	"time"
)

// stageShowing checks whether one stage's signature is on screen right now.
// The location-fragment probe and the DOM-marker probe race; the first
// positive signal wins and the other is abandoned. Racing both keeps
// detection insensitive to either signal being flaky on its own.
func (m *Machine) stageShowing(ctx context.Context, stage Stage) bool {
	sig, ok := m.profile.Signatures[stage]
	if !ok {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.signalTimeout)
	defer cancel()

	results := make(chan bool, 2)

	go func() {
		loc, err := m.eng.Driver().Location(probeCtx)
		results <- err == nil && sig.LocationFragment != "" && strings.Contains(loc, sig.LocationFragment)
	}()
	go func() {
		if sig.Marker == "" {
			results <- false
			return
		}
		found, err := m.eng.Driver().Exists(probeCtx, sig.Marker)
		results <- err == nil && found
	}()

	for i := 0; i < 2; i++ {
		select {
		case hit := <-results:
			if hit {
				return true
			}
		case <-probeCtx.Done():
			return false
		}
	}
	return false
}

// detectNext scans the remaining stages in fixed order until one shows up
// or the overall detection bound elapses. Returns the detected stage and
// its index in StageOrder.
func (m *Machine) detectNext(ctx context.Context, fromIdx int) (Stage, int, bool) {
	deadline := time.Now().Add(m.stageTimeout)
	for {
		for i := fromIdx; i < len(StageOrder); i++ {
			if m.stageShowing(ctx, StageOrder[i]) {
				return StageOrder[i], i, true
			}
		}
		if time.Now().After(deadline) {
			return "", 0, false
		}
		select {
		case <-time.After(m.pollEvery):
		case <-ctx.Done():
			return "", 0, false
		}
	}
}
