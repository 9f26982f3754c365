package realtime

import (
	"reflect"
	"testing"

	"github.com/matryer/is"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

func stringPtr(value string) *string {
	return &value
}

func todayContext(snapshot *Snapshot) *MergeContext {
	return &MergeContext{
		Cancellations: map[string]*schedule.CancelledTrip{},
		ManualDelays:  map[string]*schedule.ManualDelay{},
		Snapshot:      snapshot,
		IsToday:       true,
	}
}

func TestResolveCancelledBeatsFeedData(t *testing.T) {
	is := is.New(t)

	context := todayContext(&Snapshot{
		Delays: map[string]int{"trip1-stopA-1": 12},
	})
	context.Cancellations["trip1"] = &schedule.CancelledTrip{
		TripId: "trip1",
		Reason: stringPtr("travaux"),
	}

	resolution := context.Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")

	is.Equal(resolution.Status, StatusCancelled)
	is.Equal(resolution.Adjusted, "10:00")
	is.Equal(resolution.DelayMinutes, nil) // a cancelled trip carries no delay
	is.Equal(resolution.Reason, "travaux")
	is.True(!resolution.IsRealtime)
}

func TestResolveSkippedStop(t *testing.T) {
	is := is.New(t)

	context := todayContext(&Snapshot{
		Delays:       map[string]int{"trip1-stopA-1": 12},
		SkippedStops: map[string]bool{"trip1-stopA-1": true},
	})

	resolution := context.Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")

	is.Equal(resolution.Status, StatusSkipped)
	is.Equal(resolution.Adjusted, "10:00")
	is.True(resolution.IsRealtime)
}

func TestResolveManualDelayBeatsFeed(t *testing.T) {
	is := is.New(t)

	context := todayContext(&Snapshot{
		Delays: map[string]int{"trip1-stopA-1": 12},
	})
	context.ManualDelays["trip1"] = &schedule.ManualDelay{
		TripId:       "trip1",
		DelayMinutes: 5,
		Reason:       stringPtr("incident"),
	}

	resolution := context.Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")

	is.Equal(resolution.Status, StatusLate)
	is.Equal(resolution.Adjusted, "10:05")
	is.Equal(*resolution.DelayMinutes, 5)
	is.True(resolution.IsManual)
	is.Equal(resolution.Reason, "incident")
}

func TestResolveNotTodayIgnoresFeed(t *testing.T) {
	is := is.New(t)

	context := todayContext(&Snapshot{
		Delays: map[string]int{"trip1-stopA-1": 12},
	})
	context.IsToday = false

	resolution := context.Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")

	is.Equal(resolution.Status, StatusNormal)
	is.Equal(resolution.Adjusted, "10:00")
	is.True(!resolution.IsRealtime)
}

func TestResolveFeedDelay(t *testing.T) {
	tests := []struct {
		name            string
		giveTheoretical string
		giveSnapshot    *Snapshot
		wantStatus      Status
		wantAdjusted    string
		wantDelay       int
	}{
		{
			name:            "positive delay",
			giveTheoretical: "10:00:00",
			giveSnapshot:    &Snapshot{Delays: map[string]int{"trip1-stopA-1": 12}},
			wantStatus:      StatusLate,
			wantAdjusted:    "10:12",
			wantDelay:       12,
		},
		{
			name:            "negative delay",
			giveTheoretical: "10:00:00",
			giveSnapshot:    &Snapshot{Delays: map[string]int{"trip1-stopA-1": -3}},
			wantStatus:      StatusEarly,
			wantAdjusted:    "09:57",
			wantDelay:       -3,
		},
		{
			name:            "zero delay confirmed on time",
			giveTheoretical: "10:00:00",
			giveSnapshot:    &Snapshot{Delays: map[string]int{"trip1-stopA-1": 0}},
			wantStatus:      StatusOnTime,
			wantAdjusted:    "10:00",
			wantDelay:       0,
		},
		{
			name:            "delay wraps adjusted time across midnight",
			giveTheoretical: "23:55:00",
			giveSnapshot:    &Snapshot{Delays: map[string]int{"trip1-stopA-1": 12}},
			wantStatus:      StatusLate,
			wantAdjusted:    "00:07",
			wantDelay:       12,
		},
		{
			name:            "updated time recomputes delay",
			giveTheoretical: "10:00:00",
			giveSnapshot: &Snapshot{
				UpdatedTimes: map[string]StopTimeOverride{"trip1-stopA-1": {Departure: "10:12"}},
			},
			wantStatus:   StatusLate,
			wantAdjusted: "10:12",
			wantDelay:    12,
		},
		{
			name:            "updated time across midnight normalizes delay",
			giveTheoretical: "23:55:00",
			giveSnapshot: &Snapshot{
				UpdatedTimes: map[string]StopTimeOverride{"trip1-stopA-1": {Departure: "00:05"}},
			},
			wantStatus:   StatusLate,
			wantAdjusted: "00:05",
			wantDelay:    10,
		},
		{
			name:            "bare key fallback",
			giveTheoretical: "10:00:00",
			giveSnapshot:    &Snapshot{Delays: map[string]int{"trip1-stopA": 4}},
			wantStatus:      StatusLate,
			wantAdjusted:    "10:04",
			wantDelay:       4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			context := todayContext(tt.giveSnapshot)
			resolution := context.Resolve("trip1", "stopA", sequencePtr(1), tt.giveTheoretical)

			if resolution.Status != tt.wantStatus {
				t.Errorf("Resolve() status = %s, want %s", resolution.Status, tt.wantStatus)
			}
			if resolution.Adjusted != tt.wantAdjusted {
				t.Errorf("Resolve() adjusted = %s, want %s", resolution.Adjusted, tt.wantAdjusted)
			}
			if resolution.DelayMinutes == nil || *resolution.DelayMinutes != tt.wantDelay {
				t.Errorf("Resolve() delay = %v, want %d", resolution.DelayMinutes, tt.wantDelay)
			}
			if !resolution.IsRealtime {
				t.Errorf("Resolve() expected realtime resolution")
			}
		})
	}
}

func TestResolveNoDataFound(t *testing.T) {
	is := is.New(t)

	resolution := todayContext(&Snapshot{}).Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")

	is.Equal(resolution.Status, StatusNormal)
	is.Equal(resolution.Adjusted, "10:00")
	is.Equal(resolution.DelayMinutes, nil)
	is.True(!resolution.IsRealtime)
}

func TestResolveUnparsableTheoreticalDegrades(t *testing.T) {
	is := is.New(t)

	context := todayContext(&Snapshot{
		UpdatedTimes: map[string]StopTimeOverride{"trip1-stopA-1": {Departure: "10:12"}},
	})
	resolution := context.Resolve("trip1", "stopA", sequencePtr(1), "oops")

	is.Equal(resolution.Status, StatusNormal)
	is.True(!resolution.IsRealtime)
}

func TestResolveIsIdempotent(t *testing.T) {
	context := todayContext(&Snapshot{
		Delays: map[string]int{"trip1-stopA-1": 12},
	})

	first := context.Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")
	second := context.Resolve("trip1", "stopA", sequencePtr(1), "10:00:00")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() not idempotent: %+v != %+v", first, second)
	}
}
