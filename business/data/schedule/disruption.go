package schedule

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wclement60/bus-connect-sub003/foundation/database"
)

// CancelledTrip marks a trip as not running on one date. Its presence is a
// terminal override, no time computation is needed for the trip on that date.
type CancelledTrip struct {
	NetworkId string  `db:"network_id" json:"network_id"`
	TripId    string  `db:"trip_id" json:"trip_id"`
	Date      string  `db:"date" json:"date"`
	Reason    *string `db:"reason" json:"reason"`
}

// ManualDelay is an operator-entered delay in minutes, possibly negative, applied
// uniformly to every stop of the trip on one date. It takes precedence over
// anything the realtime feed reports for the trip.
type ManualDelay struct {
	NetworkId    string  `db:"network_id" json:"network_id"`
	TripId       string  `db:"trip_id" json:"trip_id"`
	Date         string  `db:"date" json:"date"`
	DelayMinutes int     `db:"delay_minutes" json:"delay_minutes"`
	Reason       *string `db:"reason" json:"reason"`
}

// GetCancelledTrips retrieves cancellations for tripIds on one date, keyed by trip id
func GetCancelledTrips(db *sqlx.DB,
	networkId string,
	date time.Time,
	tripIds []string) (map[string]*CancelledTrip, error) {

	if len(tripIds) == 0 {
		return map[string]*CancelledTrip{}, nil
	}
	statementString := "select * from cancelled_trip where network_id = :network_id and date = :date " +
		"and trip_id in (:trip_ids)"
	rows, err := database.NamedQueryRows(db, statementString, map[string]interface{}{
		"network_id": networkId,
		"date":       ServiceDateString(date),
		"trip_ids":   tripIds,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query cancelled_trip table: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make(map[string]*CancelledTrip)
	for rows.Next() {
		cancellation := CancelledTrip{}
		err = rows.StructScan(&cancellation)
		if err != nil {
			return nil, err
		}
		results[cancellation.TripId] = &cancellation
	}
	return results, rows.Err()
}

// GetCancelledTripsForDate retrieves every cancellation in a network on one
// date, keyed by trip id. Used by the periodic refresh that caches today's
// overrides.
func GetCancelledTripsForDate(db *sqlx.DB, networkId string, date time.Time) (map[string]*CancelledTrip, error) {
	query := "select * from cancelled_trip where network_id = $1 and date = $2"
	var rows []*CancelledTrip
	err := db.Select(&rows, db.Rebind(query), networkId, ServiceDateString(date))
	if err != nil {
		return nil, fmt.Errorf("unable to query cancelled_trip table: %w", err)
	}
	results := make(map[string]*CancelledTrip, len(rows))
	for _, cancellation := range rows {
		results[cancellation.TripId] = cancellation
	}
	return results, nil
}

// GetManualDelaysForDate retrieves every manual delay in a network on one date,
// keyed by trip id
func GetManualDelaysForDate(db *sqlx.DB, networkId string, date time.Time) (map[string]*ManualDelay, error) {
	query := "select * from manual_delay where network_id = $1 and date = $2"
	var rows []*ManualDelay
	err := db.Select(&rows, db.Rebind(query), networkId, ServiceDateString(date))
	if err != nil {
		return nil, fmt.Errorf("unable to query manual_delay table: %w", err)
	}
	results := make(map[string]*ManualDelay, len(rows))
	for _, delay := range rows {
		results[delay.TripId] = delay
	}
	return results, nil
}

// GetManualDelays retrieves manual delays for tripIds on one date, keyed by trip id
func GetManualDelays(db *sqlx.DB,
	networkId string,
	date time.Time,
	tripIds []string) (map[string]*ManualDelay, error) {

	if len(tripIds) == 0 {
		return map[string]*ManualDelay{}, nil
	}
	statementString := "select * from manual_delay where network_id = :network_id and date = :date " +
		"and trip_id in (:trip_ids)"
	rows, err := database.NamedQueryRows(db, statementString, map[string]interface{}{
		"network_id": networkId,
		"date":       ServiceDateString(date),
		"trip_ids":   tripIds,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query manual_delay table: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make(map[string]*ManualDelay)
	for rows.Next() {
		delay := ManualDelay{}
		err = rows.StructScan(&delay)
		if err != nil {
			return nil, err
		}
		results[delay.TripId] = &delay
	}
	return results, rows.Err()
}
