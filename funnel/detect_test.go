package funnel

import (
	"context"
	"testing"
	"time"
)

func testMachine(drv *fakeDriver, timeout time.Duration) *Machine {
	return NewMachine(MachineOptions{
		Engine:       testEngine(drv),
		Profile:      DefaultSiteProfile(),
		BaseURL:      "https://funnel.test/quote/start",
		StageTimeout: timeout,
	})
}

func TestStageDetectionIsMutuallyExclusive(t *testing.T) {
	snapshots := []struct {
		name     string
		page     fakePage
		expected Stage
	}{
		{
			"vehicle details by marker and location",
			fakePage{location: "/quote/vehicle-details", elements: map[string]*fakeElement{"#vehicleYear": {}}},
			StageVehicleDetails,
		},
		{
			"driver info by marker only",
			fakePage{location: "/somewhere/else", elements: map[string]*fakeElement{"#driverDob": {}}},
			StageDriverInfo,
		},
		{
			"quote results by location only",
			fakePage{location: "/quote/results", elements: map[string]*fakeElement{}},
			StageQuoteResults,
		},
	}

	for _, tt := range snapshots {
		t.Run(tt.name, func(t *testing.T) {
			m := testMachine(newFakeDriver(tt.page), 200*time.Millisecond)

			var present []Stage
			for _, stage := range StageOrder {
				if m.stageShowing(context.Background(), stage) {
					present = append(present, stage)
				}
			}
			if len(present) != 1 || present[0] != tt.expected {
				t.Errorf("stages present = %v, want exactly [%s]", present, tt.expected)
			}
		})
	}
}

func TestDetectNextHonorsStageOrder(t *testing.T) {
	page := fakePage{location: "/quote/driver-info", elements: map[string]*fakeElement{"#driverDob": {}}}
	m := testMachine(newFakeDriver(page), 200*time.Millisecond)

	stage, idx, found := m.detectNext(context.Background(), 1)
	if !found {
		t.Fatal("driver info stage not detected")
	}
	if stage != StageDriverInfo {
		t.Errorf("detected %s, want %s", stage, StageDriverInfo)
	}
	if StageOrder[idx] != StageDriverInfo {
		t.Errorf("index %d does not point at the detected stage", idx)
	}
}

func TestDetectNextNeverLooksBackward(t *testing.T) {
	// The page still shows the driver-info marker, but the machine has
	// already moved past it.
	page := fakePage{location: "/quote/driver-info", elements: map[string]*fakeElement{"#driverDob": {}}}
	m := testMachine(newFakeDriver(page), 100*time.Millisecond)

	driverIdx := 0
	for i, s := range StageOrder {
		if s == StageDriverInfo {
			driverIdx = i
		}
	}
	if _, _, found := m.detectNext(context.Background(), driverIdx+1); found {
		t.Error("detectNext reported a stage behind the cursor")
	}
}

func TestDetectNextTimesOutOnUnknownPage(t *testing.T) {
	page := fakePage{location: "/totally/unrelated", elements: map[string]*fakeElement{}}
	m := testMachine(newFakeDriver(page), 80*time.Millisecond)

	start := time.Now()
	if _, _, found := m.detectNext(context.Background(), 1); found {
		t.Fatal("detected a stage on an unknown page")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("detection took %v, bound not honored", elapsed)
	}
}
