package realtime

import (
	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

const secondsPerDay = 24 * 60 * 60

// SegmentProgress computes the completion fraction between two consecutive stops
// from their effective times and now, all in seconds past midnight: 0 before the
// first stop, 1 at or past the second, linear in between.
func SegmentProgress(fromSeconds int, toSeconds int, nowSeconds int) float64 {
	if nowSeconds < fromSeconds {
		return 0
	}
	if nowSeconds >= toSeconds || toSeconds <= fromSeconds {
		return 1
	}
	return float64(nowSeconds-fromSeconds) / float64(toSeconds-fromSeconds)
}

// JourneyProgress computes the whole-journey completion fraction from the
// effective stop times in stop order, seconds past midnight, and now. Before the
// first stop the result is 0 and past the last stop it is 1. In between, the last
// passed stop contributes a base fraction of its index over the segment count and
// the active segment contributes its local fraction. A next stop numerically
// before the current one is a midnight wrap and is pushed a day forward. The
// result is always clamped to [0, 1].
func JourneyProgress(stopSeconds []int, nowSeconds int) float64 {
	stopCount := len(stopSeconds)
	if stopCount < 2 {
		return 0
	}
	if nowSeconds < stopSeconds[0] {
		return 0
	}
	if nowSeconds >= stopSeconds[stopCount-1] {
		return 1
	}

	lastPassed := 0
	for i := 0; i < stopCount; i++ {
		if stopSeconds[i] <= nowSeconds {
			lastPassed = i
		}
	}
	if lastPassed >= stopCount-1 {
		return 1
	}

	fromSeconds := stopSeconds[lastPassed]
	toSeconds := stopSeconds[lastPassed+1]
	if toSeconds < fromSeconds {
		toSeconds += secondsPerDay
	}

	segments := float64(stopCount - 1)
	progress := float64(lastPassed)/segments + SegmentProgress(fromSeconds, toSeconds, nowSeconds)/segments
	return clamp01(progress)
}

// EffectiveStopSeconds resolves every stop of a trip and returns its effective
// time in seconds past midnight: the realtime-adjusted time when the feed or an
// override produced one, the theoretical time otherwise. A stop whose time cannot
// be parsed repeats the previous stop's time so the slice stays aligned with the
// trip's stops.
func EffectiveStopSeconds(c *MergeContext, trip *schedule.TripInstance) []int {
	results := make([]int, 0, len(trip.StopTimes))
	previous := 0
	for _, stopTime := range trip.StopTimes {
		sequence := stopTime.StopSequence
		resolution := c.Resolve(trip.TripId, stopTime.StopId, &sequence, stopTime.Time())

		effective := resolution.Theoretical
		if resolution.IsRealtime {
			effective = resolution.Adjusted
		}
		seconds, err := schedule.ParseDayTimeSeconds(effective)
		if err != nil {
			seconds = previous
		}
		results = append(results, seconds)
		previous = seconds
	}
	return results
}

// TripProgress resolves a trip's effective stop times and computes its
// whole-journey completion at now, "HH:MM:SS"
func TripProgress(c *MergeContext, trip *schedule.TripInstance, now string) float64 {
	nowSeconds, err := schedule.ParseDayTimeSeconds(now)
	if err != nil {
		return 0
	}
	return JourneyProgress(EffectiveStopSeconds(c, trip), nowSeconds)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
