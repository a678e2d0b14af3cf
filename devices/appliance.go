package devices

import (
	"fmt"

	"github.com/google/uuid"
)

// TimeWindow is one interval, in horizon slot indices, during which a HomeAppliance is allowed to
// run (spec §3.3's time_windows: [(start_h, duration_h), ...]). An appliance can have several
// disjoint windows, e.g. "8-13 and 18-22", which a single earliest/latest range cannot express.
type TimeWindow struct {
	StartHour     int `json:"startHour"`
	DurationHours int `json:"durationHours"`
}

// Contains reports whether an appliance run of the given duration starting at start would fit
// entirely inside this window (spec §3.3: "must be fully contained within a permitted window").
func (w TimeWindow) Contains(start, duration int) bool {
	return start >= w.StartHour && start+duration <= w.StartHour+w.DurationHours
}

// LatestStart is the last start hour within this window that still leaves room for a run of the
// given duration, or false if the window is too short to ever fit it.
func (w TimeWindow) LatestStart(duration int) (int, bool) {
	if w.DurationHours < duration {
		return 0, false
	}
	return w.StartHour + w.DurationHours - duration, true
}

// HomeAppliance describes a schedulable, fixed-duration, fixed-power-profile appliance such as a
// dishwasher or washing machine. The GA chooses a single start hour for it (genome segment C); once
// started it runs its whole profile without interruption, same as geneticsolution.py's appliance
// handling.
type HomeAppliance struct {
	ID uuid.UUID `json:"id"`

	Name string `json:"name"`

	// PowerProfileKW gives the load in kW for each hour of the run, e.g. [1.2, 1.2, 0.4] for a
	// three hour cycle. Length is the appliance's DurationHours.
	PowerProfileKW []float64 `json:"powerProfileKw"`

	// TimeWindows bounds the genome's single start-hour gene to the (possibly disjoint) windows
	// during which the appliance is actually available to run (e.g. "8-13 and 18-22"), given as
	// horizon slot indices.
	TimeWindows []TimeWindow `json:"timeWindows"`
}

func (a HomeAppliance) Validate() error {
	if len(a.PowerProfileKW) == 0 {
		return fmt.Errorf("appliance %q must have a non-empty power profile", a.Name)
	}
	if len(a.TimeWindows) == 0 {
		return fmt.Errorf("appliance %q must have at least one time window", a.Name)
	}
	fits := false
	for _, w := range a.TimeWindows {
		if w.DurationHours <= 0 {
			return fmt.Errorf("appliance %q has a non-positive time window duration %d", a.Name, w.DurationHours)
		}
		if w.StartHour < 0 {
			return fmt.Errorf("appliance %q has a negative time window start hour %d", a.Name, w.StartHour)
		}
		if w.DurationHours >= a.DurationHours() {
			fits = true
		}
	}
	if !fits {
		return fmt.Errorf("appliance %q's %d-hour cycle does not fit in any of its configured time windows", a.Name, a.DurationHours())
	}
	return nil
}

// DurationHours is the number of horizon slots the appliance occupies once started.
func (a HomeAppliance) DurationHours() int {
	return len(a.PowerProfileKW)
}

// EarliestStartHour is the earliest hour any configured window makes the appliance available.
func (a HomeAppliance) EarliestStartHour() int {
	earliest := 0
	for i, w := range a.TimeWindows {
		if i == 0 || w.StartHour < earliest {
			earliest = w.StartHour
		}
	}
	return earliest
}

// LatestFeasibleStartHour is the latest start hour, across every configured window, that both
// fits the appliance's duration within that window and does not run the appliance past the end of
// a horizon of the given length.
func (a HomeAppliance) LatestFeasibleStartHour(horizonLen int) int {
	best := a.EarliestStartHour()
	have := false
	for _, w := range a.TimeWindows {
		latest, ok := w.LatestStart(a.DurationHours())
		if !ok {
			continue
		}
		if maxStart := horizonLen - a.DurationHours(); latest > maxStart {
			latest = maxStart
		}
		if !have || latest > best {
			best = latest
			have = true
		}
	}
	return best
}

// AllowsStart reports whether starting the appliance at start hour is contained within one of its
// configured time windows.
func (a HomeAppliance) AllowsStart(start int) bool {
	for _, w := range a.TimeWindows {
		if w.Contains(start, a.DurationHours()) {
			return true
		}
	}
	return false
}
