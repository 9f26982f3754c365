package realtime

import (
	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

// Status classifies a resolved stop time for display
type Status string

const (
	StatusNormal    Status = "normal"
	StatusOnTime    Status = "ontime"
	StatusEarly     Status = "early"
	StatusLate      Status = "late"
	StatusCancelled Status = "cancelled"
	StatusSkipped   Status = "skipped"
)

// MergeContext holds everything needed to resolve the effective time of a stop
// call for one service date: the operator overrides loaded for that date, the
// latest feed snapshot, and whether the date is today. It is read-only during
// resolution, so resolving the same inputs always produces the same Resolution.
type MergeContext struct {
	Cancellations map[string]*schedule.CancelledTrip
	ManualDelays  map[string]*schedule.ManualDelay
	Snapshot      *Snapshot
	IsToday       bool
}

// Resolution is the effective state of one stop call after applying precedence.
// Theoretical keeps the scheduled time as given, Adjusted is the effective
// display time as "HH:MM". DelayMinutes is nil when no delay applies.
type Resolution struct {
	Status       Status
	Theoretical  string
	Adjusted     string
	DelayMinutes *int
	IsRealtime   bool
	IsManual     bool
	Reason       string
}

// resolverFunc inspects one precedence level. It returns ok=false when its level
// has nothing to say about the stop call, passing resolution to the next level.
type resolverFunc func(c *MergeContext, key StopKey, theoretical string) (Resolution, bool)

// resolvers in precedence order: a cancellation beats a skipped stop, which beats
// a manual delay, which beats anything the feed reports, which beats the
// theoretical time. Keeping the chain explicit keeps the precedence contract
// testable level by level.
var resolvers = []resolverFunc{
	resolveCancelled,
	resolveSkipped,
	resolveManualDelay,
	resolveNotToday,
	resolveFeed,
}

// Resolve computes the effective time and status for a stop call with its
// theoretical "HH:MM:SS" time. It never fails: unparsable inputs degrade to a
// normal, non-realtime resolution of the theoretical time.
func (c *MergeContext) Resolve(tripId string, stopId string, sequence *uint32, theoretical string) Resolution {
	key := StopKey{TripId: tripId, StopId: stopId, Sequence: sequence}
	for _, resolver := range resolvers {
		if resolution, ok := resolver(c, key, theoretical); ok {
			return resolution
		}
	}
	return theoreticalResolution(theoretical)
}

func theoreticalResolution(theoretical string) Resolution {
	return Resolution{
		Status:      StatusNormal,
		Theoretical: theoretical,
		Adjusted:    schedule.TrimToHHMM(theoretical),
	}
}

func resolveCancelled(c *MergeContext, key StopKey, theoretical string) (Resolution, bool) {
	cancellation, present := c.Cancellations[key.TripId]
	if !present {
		return Resolution{}, false
	}
	resolution := theoreticalResolution(theoretical)
	resolution.Status = StatusCancelled
	if cancellation.Reason != nil {
		resolution.Reason = *cancellation.Reason
	}
	return resolution, true
}

func resolveSkipped(c *MergeContext, key StopKey, theoretical string) (Resolution, bool) {
	if !c.Snapshot.IsSkipped(key) {
		return Resolution{}, false
	}
	resolution := theoreticalResolution(theoretical)
	resolution.Status = StatusSkipped
	resolution.IsRealtime = true
	return resolution, true
}

func resolveManualDelay(c *MergeContext, key StopKey, theoretical string) (Resolution, bool) {
	manualDelay, present := c.ManualDelays[key.TripId]
	if !present {
		return Resolution{}, false
	}
	resolution := delayedResolution(theoretical, manualDelay.DelayMinutes)
	resolution.IsManual = true
	if manualDelay.Reason != nil {
		resolution.Reason = *manualDelay.Reason
	}
	return resolution, true
}

// resolveNotToday makes the theoretical time authoritative for any date other
// than today: the feed only describes today's operation.
func resolveNotToday(c *MergeContext, _ StopKey, theoretical string) (Resolution, bool) {
	if c.IsToday {
		return Resolution{}, false
	}
	return theoreticalResolution(theoretical), true
}

func resolveFeed(c *MergeContext, key StopKey, theoretical string) (Resolution, bool) {
	if override, present := c.Snapshot.UpdatedTimeFor(key); present {
		if resolution, ok := retimedResolution(theoretical, override); ok {
			return resolution, true
		}
	}
	if delay, present := c.Snapshot.DelayFor(key); present {
		return delayedResolution(theoretical, delay), true
	}
	return Resolution{}, false
}

// retimedResolution recomputes the delay from an absolute updated time. The raw
// minute difference is folded into (-720, 720] so a retime across midnight, such
// as 23:55 scheduled against 00:05 updated, yields +10 rather than -1430.
func retimedResolution(theoretical string, override StopTimeOverride) (Resolution, bool) {
	theoreticalMinutes, err := schedule.ParseDayTimeMinutes(theoretical)
	if err != nil {
		return Resolution{}, false
	}
	updatedMinutes, err := schedule.ParseDayTimeMinutes(override.Time())
	if err != nil {
		return Resolution{}, false
	}
	delay := schedule.NormalizeDelayMinutes(updatedMinutes - theoreticalMinutes)
	resolution := theoreticalResolution(theoretical)
	resolution.Adjusted = schedule.FormatHHMM(updatedMinutes)
	resolution.DelayMinutes = &delay
	resolution.IsRealtime = true
	resolution.Status = statusForDelay(delay, true)
	return resolution, true
}

// delayedResolution applies a signed minute delay to the theoretical time with
// minute-of-day arithmetic wrapping at 24 hours
func delayedResolution(theoretical string, delay int) Resolution {
	resolution := theoreticalResolution(theoretical)
	adjusted, err := schedule.AddMinutes(theoretical, delay)
	if err != nil {
		return resolution
	}
	resolution.Adjusted = adjusted
	resolution.DelayMinutes = &delay
	resolution.IsRealtime = true
	resolution.Status = statusForDelay(delay, true)
	return resolution
}

// statusForDelay classifies a rounded delay: late when positive, early when
// negative, on time only when realtime data confirmed a zero delay.
func statusForDelay(delay int, realtimeFound bool) Status {
	switch {
	case delay > 0:
		return StatusLate
	case delay < 0:
		return StatusEarly
	case realtimeFound:
		return StatusOnTime
	}
	return StatusNormal
}
