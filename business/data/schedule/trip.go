package schedule

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wclement60/bus-connect-sub003/foundation/database"
)

// Trip contains a scheduled trip definition on a route and direction
type Trip struct {
	NetworkId   string  `db:"network_id" json:"network_id"`
	TripId      string  `db:"trip_id" json:"trip_id"`
	RouteId     string  `db:"route_id" json:"route_id"`
	DirectionId int     `db:"direction_id" json:"direction_id"`
	ServiceId   string  `db:"service_id" json:"service_id"`
	Headsign    *string `db:"headsign" json:"headsign"`
}

// TripInstance is a Trip with its ordered stop times loaded
type TripInstance struct {
	Trip
	StopTimes []*StopTime `json:"stop_times"`
}

func (t *TripInstance) FirstStopTime() *StopTime {
	if len(t.StopTimes) == 0 {
		return nil
	}
	return t.StopTimes[0]
}

func (t *TripInstance) LastStopTime() *StopTime {
	lastIndex := len(t.StopTimes) - 1
	if lastIndex < 0 {
		return nil
	}
	return t.StopTimes[lastIndex]
}

// FirstDepartureTime returns the trip's first stop departure time, falling back to
// its arrival time. Empty when the trip has no usable first stop time.
func (t *TripInstance) FirstDepartureTime() string {
	first := t.FirstStopTime()
	if first == nil {
		return ""
	}
	if first.DepartureTime != "" {
		return first.DepartureTime
	}
	return first.ArrivalTime
}

// LastArrivalTime returns the trip's last stop arrival time, falling back to its
// departure time. Empty when the trip has no usable last stop time.
func (t *TripInstance) LastArrivalTime() string {
	last := t.LastStopTime()
	if last == nil {
		return ""
	}
	if last.ArrivalTime != "" {
		return last.ArrivalTime
	}
	return last.DepartureTime
}

// GetTripInstances loads all trips on a route and direction whose service_id is in
// serviceIds, with their stop times attached in stop_sequence order. Trips whose
// stop times could not be loaded are returned without stop times and reported in
// the second return value so the caller can log them.
func GetTripInstances(logger *log.Logger,
	db *sqlx.DB,
	networkId string,
	routeId string,
	directionId int,
	serviceIds []string) ([]*TripInstance, []string, error) {

	if len(serviceIds) == 0 {
		return nil, nil, nil
	}

	statementString := "select * from trip where network_id = :network_id and route_id = :route_id " +
		"and direction_id = :direction_id and service_id in (:service_ids)"
	rows, err := database.NamedQueryRows(db, statementString, map[string]interface{}{
		"network_id":   networkId,
		"route_id":     routeId,
		"direction_id": directionId,
		"service_ids":  serviceIds,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to retrieve trips for route %s direction %d: %w",
			routeId, directionId, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var trips []*TripInstance
	var tripIds []string
	for rows.Next() {
		tripInstance := TripInstance{}
		err = rows.StructScan(&tripInstance.Trip)
		if err != nil {
			return nil, nil, err
		}
		trips = append(trips, &tripInstance)
		tripIds = append(tripIds, tripInstance.TripId)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	stopTimeMap, failedTripIds := GetStopTimesForTrips(logger, db, networkId, tripIds)
	var missingTripIds []string
	for _, trip := range trips {
		stopTimes, present := stopTimeMap[trip.TripId]
		if present {
			trip.StopTimes = stopTimes
		} else {
			missingTripIds = append(missingTripIds, trip.TripId)
		}
	}
	missingTripIds = append(missingTripIds, failedTripIds...)

	return trips, missingTripIds, nil
}

// GetTripStopTimes loads the full ordered stop sequence of a single trip, used by
// the one-shot vehicle detail fetch.
func GetTripStopTimes(db *sqlx.DB, networkId string, tripId string) ([]*StopTime, error) {
	query := "select * from stop_time where network_id = $1 and trip_id = $2 order by stop_sequence"
	var results []*StopTime
	err := db.Select(&results, db.Rebind(query), networkId, tripId)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve stop times for trip %s: %w", tripId, err)
	}
	return results, nil
}

// ServiceDateString formats a service date the way disruption and exception rows
// store it.
func ServiceDateString(date time.Time) string {
	return date.Format("2006-01-02")
}
