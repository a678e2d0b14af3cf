package timeutils

import "time"

// IsWeekday returns true if t falls on Monday through Friday in t's own location.
func IsWeekday(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// AbsolutePeriod returns the concrete Period that the ClockTimePeriod maps onto for the calendar
// day t falls on in the period's Start location, and true if t is inside it (inclusive of
// Period.Start, exclusive of Period.End). If t is outside it, an empty Period and false are
// returned.
func (p *ClockTimePeriod) AbsolutePeriod(t time.Time) (Period, bool) {
	year, month, day := t.In(p.Start.Location).Date()

	period := Period{
		Start: p.Start.OnDate(year, month, day),
		End:   p.End.OnDate(year, month, day),
	}
	if t.Before(period.Start) || !t.Before(period.End) {
		return Period{}, false
	}
	return period, true
}

// StartOfDay returns midnight on t's calendar day, in loc. This is the anchor that hourly
// horizons are built from: the optimizer always starts its first slot at the beginning of the
// site's local day, never at the wall-clock hour the run happens to start in, so that slot
// boundaries stay aligned across runs and across daylight-saving transitions.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	tLocal := t.In(loc)
	year, month, day := tLocal.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// Horizon returns the UTC instants of the start of each of the nHours hourly slots beginning at
// StartOfDay(start, loc). Slots are consecutive absolute hours, so they are always exactly one
// hour apart; on a daylight-saving transition day in loc the local clock hours they fall on skip
// or repeat an hour.
func Horizon(start time.Time, loc *time.Location, nHours int) []time.Time {
	dayStart := StartOfDay(start, loc)

	slots := make([]time.Time, 0, nHours)
	for i := 0; i < nHours; i++ {
		// AddDate/Add on a zoned time.Time correctly accounts for DST: adding an hour of
		// wall-clock time across a "spring forward" transition still lands on the next
		// local clock hour, which is what the site's schedules are defined in terms of.
		slot := dayStart.Add(time.Duration(i) * time.Hour)
		slots = append(slots, slot.UTC())
	}
	return slots
}
