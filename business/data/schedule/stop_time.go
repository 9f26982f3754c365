package schedule

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wclement60/bus-connect-sub003/foundation/database"
)

// StopTime is one scheduled stop on a trip. Arrival and departure times are day
// times as "HH:MM:SS" strings and may exceed "24:00:00" on trips running past
// midnight. StopSequence is strictly increasing within a trip.
type StopTime struct {
	NetworkId     string `db:"network_id" json:"network_id"`
	TripId        string `db:"trip_id" json:"trip_id"`
	StopId        string `db:"stop_id" json:"stop_id"`
	StopSequence  uint32 `db:"stop_sequence" json:"stop_sequence"`
	ArrivalTime   string `db:"arrival_time" json:"arrival_time"`
	DepartureTime string `db:"departure_time" json:"departure_time"`
}

// Time returns the stop's departure time, falling back to arrival
func (st *StopTime) Time() string {
	if st.DepartureTime != "" {
		return st.DepartureTime
	}
	return st.ArrivalTime
}

// Stop holds display metadata for a stop
type Stop struct {
	NetworkId string   `db:"network_id" json:"network_id"`
	StopId    string   `db:"stop_id" json:"stop_id"`
	Name      string   `db:"name" json:"name"`
	Latitude  *float64 `db:"latitude" json:"latitude"`
	Longitude *float64 `db:"longitude" json:"longitude"`
}

const (
	stopTimePageSize     = 200
	stopTimePageAttempts = 3
)

// GetStopTimesForTrips loads stop times for tripIds in pages, keyed by trip id and
// ordered by stop_sequence. Each page is retried a small fixed number of times
// with increasing backoff; a page that exhausts its retries is logged and skipped
// rather than discarding the pages already collected. The trip ids belonging to
// failed pages are returned so callers can report them.
func GetStopTimesForTrips(logger *log.Logger,
	db *sqlx.DB,
	networkId string,
	tripIds []string) (map[string][]*StopTime, []string) {

	results := make(map[string][]*StopTime)
	var failedTripIds []string

	for start := 0; start < len(tripIds); start += stopTimePageSize {
		end := start + stopTimePageSize
		if end > len(tripIds) {
			end = len(tripIds)
		}
		page := tripIds[start:end]

		pageResults, err := getStopTimePageWithRetry(db, networkId, page)
		if err != nil {
			logger.Printf("giving up on stop_time page of %d trips after %d attempts. error:%v\n",
				len(page), stopTimePageAttempts, err)
			failedTripIds = append(failedTripIds, page...)
			continue
		}
		for tripId, stopTimes := range pageResults {
			results[tripId] = stopTimes
		}
	}
	return results, failedTripIds
}

func getStopTimePageWithRetry(db *sqlx.DB, networkId string, tripIds []string) (map[string][]*StopTime, error) {
	var lastErr error
	for attempt := 1; attempt <= stopTimePageAttempts; attempt++ {
		results, err := getStopTimePage(db, networkId, tripIds)
		if err == nil {
			return results, nil
		}
		lastErr = err
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
	return nil, lastErr
}

func getStopTimePage(db *sqlx.DB, networkId string, tripIds []string) (map[string][]*StopTime, error) {
	statementString := "select * from stop_time where network_id = :network_id and trip_id in (:trip_ids) " +
		"order by trip_id, stop_sequence"
	rows, err := database.NamedQueryRows(db, statementString, map[string]interface{}{
		"network_id": networkId,
		"trip_ids":   tripIds,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query stop_time table: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make(map[string][]*StopTime)
	for rows.Next() {
		stopTime := StopTime{}
		err = rows.StructScan(&stopTime)
		if err != nil {
			return nil, err
		}
		results[stopTime.TripId] = append(results[stopTime.TripId], &stopTime)
	}
	return results, rows.Err()
}

// GetStops retrieves stop metadata for a network keyed by stop id
func GetStops(db *sqlx.DB, networkId string) (map[string]*Stop, error) {
	query := "select * from stop where network_id = $1"
	var stops []*Stop
	err := db.Select(&stops, db.Rebind(query), networkId)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve stops for network %s: %w", networkId, err)
	}
	results := make(map[string]*Stop, len(stops))
	for _, stop := range stops {
		results[stop.StopId] = stop
	}
	return results, nil
}

// StopLabel returns the display name for stopId, substituting a placeholder when
// the stop metadata is missing. A stop time referencing an unknown stop is still
// displayed, never dropped.
func StopLabel(stops map[string]*Stop, stopId string) string {
	if stop, present := stops[stopId]; present && stop.Name != "" {
		return stop.Name
	}
	return fmt.Sprintf("Stop %s", stopId)
}
