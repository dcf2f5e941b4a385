package timeclock

import "github.com/jw6ventures/punchclock/internal/store"

// ComputeTotalMs folds a clock history into the total milliseconds worked.
//
// Events are sorted by timestamp first. Leading clock-outs are skipped. Two
// consecutive clock-ins keep the earlier timestamp and two consecutive
// clock-outs adopt the later one; neither adds time. A trailing clock-in
// with no clock-out contributes nothing. warn, when non-nil, is called for
// every duplicate event.
func ComputeTotalMs(events []store.ClockEvent, warn func(store.ClockEvent)) int64 {
	if len(events) < 2 {
		return 0
	}
	sorted := store.SortedEvents(events)

	start := 0
	for start < len(sorted) && !sorted[start].ClockingIn {
		start++
	}
	if start == len(sorted) {
		return 0
	}

	var (
		wasIn  = true
		lastTs = sorted[start].Timestamp
		total  int64
	)
	for _, ev := range sorted[start+1:] {
		if ev.ClockingIn == wasIn {
			if warn != nil {
				warn(ev)
			}
			if !wasIn {
				lastTs = ev.Timestamp
			}
			continue
		}
		if !ev.ClockingIn {
			total += ev.Timestamp - lastTs
		}
		wasIn = ev.ClockingIn
		lastTs = ev.Timestamp
	}
	return total
}
