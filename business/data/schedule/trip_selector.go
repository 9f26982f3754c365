package schedule

import "sort"

// SortTripInstances orders trips ascending by their first stop departure time,
// falling back to the arrival time, using plain string comparison of the
// zero-padded "HH:MM:SS" values. A trip with no resolvable first stop time sorts
// last. The sort is stable so equal departures keep their store order.
func SortTripInstances(trips []*TripInstance) {
	sort.SliceStable(trips, func(i, j int) bool {
		a := trips[i].FirstDepartureTime()
		b := trips[j].FirstDepartureTime()
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})
}

// InitialTripIndex picks the trip to show for a target "HH:MM" time: the first
// trip whose first stop time is at or after the target. When no trip qualifies
// the selection falls back to index 0 rather than the closest trip; existing
// callers depend on that behavior. Returns -1 only for an empty list.
func InitialTripIndex(trips []*TripInstance, targetTime string) int {
	if len(trips) == 0 {
		return -1
	}
	for i, trip := range trips {
		first := trip.FirstDepartureTime()
		if first != "" && hhmmPrefix(first) >= targetTime {
			return i
		}
	}
	return 0
}

// hhmmPrefix reduces "HH:MM:SS" to "HH:MM" without wrapping hours past 24, so
// post-midnight trips keep sorting after the evening ones in string compares.
func hhmmPrefix(dayTime string) string {
	if len(dayTime) > 5 {
		return dayTime[:5]
	}
	return dayTime
}

// CurrentTripIndex picks the first trip still in progress or yet to run: the
// first trip whose last stop time is at or after now, "HH:MM". Returns -1 when
// every trip has finished, meaning the current selection should not change.
func CurrentTripIndex(trips []*TripInstance, now string) int {
	for i, trip := range trips {
		last := trip.LastArrivalTime()
		if last != "" && hhmmPrefix(last) >= now {
			return i
		}
	}
	return -1
}

// ClosestTripIndex picks the trip whose first stop time is nearest to the target
// "HH:MM" time by absolute minute distance, earliest trip winning ties. Returns
// -1 when no trip has a parsable first stop time.
func ClosestTripIndex(trips []*TripInstance, targetTime string) int {
	bestIndex := -1
	bestDistance := -1
	for i, trip := range trips {
		first := trip.FirstDepartureTime()
		if first == "" {
			continue
		}
		distance := DayTimeDistanceMinutes(first, targetTime)
		if distance < 0 {
			continue
		}
		if bestIndex == -1 || distance < bestDistance {
			bestIndex = i
			bestDistance = distance
		}
	}
	return bestIndex
}

// NextTripIndex moves the selection forward one trip, staying on the last trip at
// the end of the list
func NextTripIndex(current int, tripCount int) int {
	if current+1 < tripCount {
		return current + 1
	}
	return current
}

// PreviousTripIndex moves the selection back one trip, staying on the first trip
func PreviousTripIndex(current int) int {
	if current > 0 {
		return current - 1
	}
	return current
}
