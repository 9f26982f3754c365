package vehicle

import (
	"context"
	"errors"
	"sync"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

// ErrFetchInProgress is returned when a detail fetch for the same trip is
// already running. The caller simply waits for the first fetch to finish.
var ErrFetchInProgress = errors.New("trip detail fetch already in progress")

// DetailFetcher performs the one-shot full stop sequence fetch triggered by
// clicking a vehicle. Concurrent fetches for the same trip id are suppressed by
// a per-trip lock that is released when the fetch completes, whether it
// succeeded or failed.
type DetailFetcher struct {
	mu       sync.Mutex
	inFlight map[string]bool
	fetch    func(ctx context.Context, tripId string) ([]*schedule.StopTime, error)
}

// NewDetailFetcher creates a DetailFetcher around fetch
func NewDetailFetcher(fetch func(ctx context.Context, tripId string) ([]*schedule.StopTime, error)) *DetailFetcher {
	return &DetailFetcher{
		inFlight: make(map[string]bool),
		fetch:    fetch,
	}
}

// Fetch loads the trip's full stop sequence, returning ErrFetchInProgress when a
// fetch for the same trip is already running
func (f *DetailFetcher) Fetch(ctx context.Context, tripId string) ([]*schedule.StopTime, error) {
	f.mu.Lock()
	if f.inFlight[tripId] {
		f.mu.Unlock()
		return nil, ErrFetchInProgress
	}
	f.inFlight[tripId] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.inFlight, tripId)
		f.mu.Unlock()
	}()

	return f.fetch(ctx, tripId)
}
