package lineview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
	"github.com/wclement60/bus-connect-sub003/business/realtime"
	"github.com/wclement60/bus-connect-sub003/business/vehicle"
)

//defaultHttpHandler simple default http handler for default route
type defaultHttpHandler struct {
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

// activeServicesResponse lists the services running on a date
type activeServicesResponse struct {
	Date       string   `json:"date"`
	Holiday    bool     `json:"holiday"`
	ServiceIds []string `json:"service_ids"`
}

// handleActiveServices resolves the service calendar for a date. An empty
// service list is a valid response, not an error.
func (s *Service) handleActiveServices(w http.ResponseWriter, r *http.Request) {
	networkId := mux.Vars(r)["networkId"]
	date, err := requestDate(r)
	if err != nil {
		http.Error(w, "invalid date parameter", http.StatusBadRequest)
		return
	}

	calendars, err := schedule.GetServiceCalendars(s.db, networkId)
	if err != nil {
		s.serverError(w, err)
		return
	}
	exceptions, err := schedule.GetCalendarExceptions(s.db, networkId, date)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, activeServicesResponse{
		Date:       schedule.ServiceDateString(date),
		Holiday:    s.holidays.isHoliday(date),
		ServiceIds: schedule.ActiveServiceIds(calendars, exceptions, date),
	})
}

// tripSummary is one trip in a trip list response
type tripSummary struct {
	TripId    string  `json:"trip_id"`
	Headsign  *string `json:"headsign"`
	FirstStop string  `json:"first_stop_time"`
	LastStop  string  `json:"last_stop_time"`
	StopCount int     `json:"stop_count"`
}

// tripsResponse is the ordered trip list for a route and direction with the
// selection indexes derived for the requested time
type tripsResponse struct {
	Date           string        `json:"date"`
	Trips          []tripSummary `json:"trips"`
	InitialIndex   int           `json:"initial_index"`
	CurrentIndex   int           `json:"current_index"`
	ClosestIndex   int           `json:"closest_index"`
	MissingTrips   []string      `json:"missing_trips,omitempty"`
	ConfirmedEmpty bool          `json:"confirmed_empty"`
}

// handleTrips lists the trips running on a route and direction for a date,
// ordered by first departure, with the time-based selection indexes
func (s *Service) handleTrips(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	networkId := vars["networkId"]
	routeId := vars["routeId"]
	directionId, err := strconv.Atoi(r.FormValue("direction"))
	if err != nil {
		http.Error(w, "invalid direction parameter", http.StatusBadRequest)
		return
	}
	date, err := requestDate(r)
	if err != nil {
		http.Error(w, "invalid date parameter", http.StatusBadRequest)
		return
	}
	targetTime := r.FormValue("time")
	if targetTime == "" {
		targetTime = time.Now().Format("15:04")
	}

	calendars, err := schedule.GetServiceCalendars(s.db, networkId)
	if err != nil {
		s.serverError(w, err)
		return
	}
	exceptions, err := schedule.GetCalendarExceptions(s.db, networkId, date)
	if err != nil {
		s.serverError(w, err)
		return
	}
	serviceIds := schedule.ActiveServiceIds(calendars, exceptions, date)

	trips, missingTripIds, err := schedule.GetTripInstances(s.log, s.db, networkId, routeId, directionId, serviceIds)
	if err != nil {
		s.serverError(w, err)
		return
	}
	schedule.SortTripInstances(trips)

	response := tripsResponse{
		Date:           schedule.ServiceDateString(date),
		Trips:          make([]tripSummary, 0, len(trips)),
		InitialIndex:   schedule.InitialTripIndex(trips, targetTime),
		CurrentIndex:   -1,
		ClosestIndex:   schedule.ClosestTripIndex(trips, targetTime),
		MissingTrips:   missingTripIds,
		ConfirmedEmpty: len(trips) == 0,
	}
	if isToday(date) {
		response.CurrentIndex = schedule.CurrentTripIndex(trips, time.Now().Format("15:04"))
	}
	for _, trip := range trips {
		response.Trips = append(response.Trips, tripSummary{
			TripId:    trip.TripId,
			Headsign:  trip.Headsign,
			FirstStop: trip.FirstDepartureTime(),
			LastStop:  trip.LastArrivalTime(),
			StopCount: len(trip.StopTimes),
		})
	}
	if response.InitialIndex >= 0 && response.InitialIndex < len(trips) {
		s.SelectTrip(trips[response.InitialIndex].TripId)
	}

	s.writeJSON(w, response)
}

// handleStopTimeDisplay resolves and formats one stop call of a trip
func (s *Service) handleStopTimeDisplay(w http.ResponseWriter, r *http.Request) {
	tripId := mux.Vars(r)["tripId"]
	stopId := r.FormValue("stop")
	theoretical := r.FormValue("time")
	if stopId == "" || theoretical == "" {
		http.Error(w, "stop and time parameters are required", http.StatusBadRequest)
		return
	}
	var sequence *uint32
	if rawSequence := r.FormValue("sequence"); rawSequence != "" {
		parsed, err := strconv.ParseUint(rawSequence, 10, 32)
		if err != nil {
			http.Error(w, "invalid sequence parameter", http.StatusBadRequest)
			return
		}
		sequenceValue := uint32(parsed)
		sequence = &sequenceValue
	}
	date, err := requestDate(r)
	if err != nil {
		http.Error(w, "invalid date parameter", http.StatusBadRequest)
		return
	}

	mergeContext, err := s.mergeContext(date, []string{tripId})
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.writeJSON(w, mergeContext.FormatStopTime(tripId, stopId, sequence, theoretical))
}

// progressResponse carries a whole-journey completion fraction
type progressResponse struct {
	TripId   string  `json:"trip_id"`
	Progress float64 `json:"progress"`
}

// handleTripProgress computes the trip's whole-journey completion at the
// current wall clock
func (s *Service) handleTripProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	networkId := vars["networkId"]
	tripId := vars["tripId"]
	date, err := requestDate(r)
	if err != nil {
		http.Error(w, "invalid date parameter", http.StatusBadRequest)
		return
	}

	stopTimes, err := schedule.GetTripStopTimes(s.db, networkId, tripId)
	if err != nil {
		s.serverError(w, err)
		return
	}
	trip := schedule.TripInstance{StopTimes: stopTimes}
	trip.TripId = tripId

	mergeContext, err := s.mergeContext(date, []string{tripId})
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.writeJSON(w, progressResponse{
		TripId:   tripId,
		Progress: realtime.TripProgress(mergeContext, &trip, time.Now().Format("15:04:05")),
	})
}

// tripDetailStop is one stop call in a trip detail response
type tripDetailStop struct {
	StopId        string `json:"stop_id"`
	Label         string `json:"label"`
	StopSequence  uint32 `json:"stop_sequence"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time"`
}

// handleTripDetail serves the one-shot full stop sequence fetch triggered by
// clicking a vehicle. The clicked trip becomes the selection, a fetch already
// running for the trip answers 202, and a fetch outrun by a newer selection
// answers 204 with its result discarded.
func (s *Service) handleTripDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	networkId := vars["networkId"]
	tripId := vars["tripId"]

	s.SelectTrip(tripId)
	stopTimes, err := s.FetchSelectedTripDetail(r.Context(), tripId)
	if errors.Is(err, vehicle.ErrFetchInProgress) {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if errors.Is(err, ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	stops, err := schedule.GetStops(s.db, networkId)
	if err != nil {
		s.serverError(w, err)
		return
	}
	response := make([]tripDetailStop, 0, len(stopTimes))
	for _, stopTime := range stopTimes {
		response = append(response, tripDetailStop{
			StopId:        stopTime.StopId,
			Label:         schedule.StopLabel(stops, stopTime.StopId),
			StopSequence:  stopTime.StopSequence,
			ArrivalTime:   stopTime.ArrivalTime,
			DepartureTime: stopTime.DepartureTime,
		})
	}
	s.writeJSON(w, response)
}

// vehicleState is one vehicle in the live positions response
type vehicleState struct {
	VehicleId string           `json:"vehicle_id"`
	TripId    string           `json:"trip_id,omitempty"`
	Position  vehicle.Position `json:"position"`
	Bearing   float64          `json:"bearing"`
}

// handleVehicles serves the current rendered position of every live vehicle
func (s *Service) handleVehicles(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.interpolator.Snapshot()
	response := make([]vehicleState, 0, len(snapshot))
	for vehicleId, fix := range snapshot {
		response = append(response, vehicleState{
			VehicleId: vehicleId,
			TripId:    fix.TripId,
			Position:  fix.Position,
			Bearing:   fix.Bearing,
		})
	}
	s.writeJSON(w, response)
}

// handleVehiclesPause stops all running animations and snaps markers to their
// targets, used while the map view is being manipulated
func (s *Service) handleVehiclesPause(w http.ResponseWriter, _ *http.Request) {
	s.interpolator.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) writeJSON(w http.ResponseWriter, payload interface{}) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		s.log.Printf("Error marshaling response to json: error:%v\n", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(jsonData)
	if err != nil {
		s.log.Printf("Error writing json response: %s", err)
	}
}

func (s *Service) serverError(w http.ResponseWriter, err error) {
	s.log.Printf("Error serving request: %v", err)
	http.Error(w, "Error serving request", http.StatusInternalServerError)
}

// requestDate parses the request's date parameter, defaulting to today
func requestDate(r *http.Request) (time.Time, error) {
	rawDate := r.FormValue("date")
	if rawDate == "" {
		return time.Now(), nil
	}
	return schedule.ParseCalendarDate(rawDate)
}

// createServer creates the configured http.Server for the lineview endpoints
func (s *Service) createServer() *http.Server {
	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{})
	r.HandleFunc("/networks/{networkId}/services", s.handleActiveServices).Methods(http.MethodGet)
	r.HandleFunc("/networks/{networkId}/routes/{routeId}/trips", s.handleTrips).Methods(http.MethodGet)
	r.HandleFunc("/networks/{networkId}/trips/{tripId}/display", s.handleStopTimeDisplay).Methods(http.MethodGet)
	r.HandleFunc("/networks/{networkId}/trips/{tripId}/progress", s.handleTripProgress).Methods(http.MethodGet)
	r.HandleFunc("/networks/{networkId}/trips/{tripId}/stops", s.handleTripDetail).Methods(http.MethodGet)
	r.HandleFunc("/vehicles", s.handleVehicles).Methods(http.MethodGet)
	r.HandleFunc("/vehicles/pause", s.handleVehiclesPause).Methods(http.MethodPost)

	return &http.Server{
		Addr: strings.Join([]string{"0.0.0.0", strconv.Itoa(s.conf.HTTPPort)}, ":"),
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
}

// runWebService starts up the lineview web service, and terminates on shutdown signal
func (s *Service) runWebService(wg *sync.WaitGroup, shutdownSignal chan bool) {
	wg.Add(1)
	defer wg.Done()
	srv := s.createServer()
	s.log.Printf("Starting server on port %d", s.conf.HTTPPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			s.log.Printf("server ListenAndServe ended. %s", err)
		}
	}()

	<-shutdownSignal
	s.log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), time.Duration(5)*time.Second)
	defer serverCancelFunc()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		s.log.Printf("error shutting down webservice, error:%s", err)
	}
}
