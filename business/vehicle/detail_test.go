package vehicle

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

func TestDetailFetcherSuppressesDuplicateFetch(t *testing.T) {
	is := is.New(t)

	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := NewDetailFetcher(func(ctx context.Context, tripId string) ([]*schedule.StopTime, error) {
		close(started)
		<-release
		return []*schedule.StopTime{{TripId: tripId, StopId: "stopA", StopSequence: 1}}, nil
	})

	results := make(chan error)
	go func() {
		_, err := fetcher.Fetch(context.Background(), "trip1")
		results <- err
	}()
	<-started

	// a second fetch for the same trip while the first is still running
	_, err := fetcher.Fetch(context.Background(), "trip1")
	is.True(errors.Is(err, ErrFetchInProgress))

	close(release)
	is.NoErr(<-results)
}

func TestDetailFetcherReleasesLockAfterCompletion(t *testing.T) {
	is := is.New(t)

	calls := 0
	fetcher := NewDetailFetcher(func(ctx context.Context, tripId string) ([]*schedule.StopTime, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("database unavailable")
		}
		return []*schedule.StopTime{{TripId: tripId, StopId: "stopA", StopSequence: 1}}, nil
	})

	_, err := fetcher.Fetch(context.Background(), "trip1")
	is.True(err != nil)

	// the failed fetch must not leave the trip locked
	stopTimes, err := fetcher.Fetch(context.Background(), "trip1")
	is.NoErr(err)
	is.Equal(len(stopTimes), 1)
	is.Equal(calls, 2)
}

func TestDetailFetcherDifferentTripsDoNotBlock(t *testing.T) {
	is := is.New(t)

	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := NewDetailFetcher(func(ctx context.Context, tripId string) ([]*schedule.StopTime, error) {
		if tripId == "trip1" {
			close(started)
			<-release
		}
		return []*schedule.StopTime{{TripId: tripId}}, nil
	})

	results := make(chan error)
	go func() {
		_, err := fetcher.Fetch(context.Background(), "trip1")
		results <- err
	}()
	<-started

	stopTimes, err := fetcher.Fetch(context.Background(), "trip2")
	is.NoErr(err)
	is.Equal(stopTimes[0].TripId, "trip2")

	close(release)
	is.NoErr(<-results)
}
