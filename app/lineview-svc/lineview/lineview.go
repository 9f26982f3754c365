// Package lineview serves the live state of a transit line: which trips run on
// a date, their realtime-adjusted stop times, journey progress, and
// continuously interpolated vehicle positions.
package lineview

import (
	"context"
	"errors"
	logger "log"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
	"github.com/wclement60/bus-connect-sub003/business/realtime"
	"github.com/wclement60/bus-connect-sub003/business/vehicle"
)

// ErrSuperseded is returned when a trip detail fetch completes after the
// selection moved to another trip. The stale result must be discarded.
var ErrSuperseded = errors.New("trip selection changed during fetch")

// Conf contains all configurable parameters in lineview
type Conf struct {
	NetworkId               string
	RouteIds                []string
	HTTPPort                int
	RefreshEverySeconds     int
	VehiclePollEverySeconds int
	VehiclePositionsUrl     string
	SnapshotSubject         string
	VehicleEventSubject     string
	AnimationSeconds        int
	FrameMillis             int
}

// Service wires the timetable store, the realtime snapshot, the operator
// overrides, and the vehicle interpolator behind the web service
type Service struct {
	log          *logger.Logger
	db           *sqlx.DB
	natsConn     *nats.Conn
	conf         Conf
	holder       *realtime.SnapshotHolder
	interpolator *vehicle.Interpolator
	details      *vehicle.DetailFetcher
	holidays     *networkHolidayCalendar

	mu             sync.Mutex
	cancellations  map[string]*schedule.CancelledTrip
	manualDelays   map[string]*schedule.ManualDelay
	selectedTripId string
}

// NewService builds a Service ready to Run
func NewService(log *logger.Logger, db *sqlx.DB, natsConn *nats.Conn, conf Conf) *Service {
	s := &Service{
		log:           log,
		db:            db,
		natsConn:      natsConn,
		conf:          conf,
		holder:        &realtime.SnapshotHolder{},
		holidays:      makeNetworkHolidayCalendar(),
		cancellations: map[string]*schedule.CancelledTrip{},
		manualDelays:  map[string]*schedule.ManualDelay{},
	}
	s.details = vehicle.NewDetailFetcher(func(ctx context.Context, tripId string) ([]*schedule.StopTime, error) {
		return schedule.GetTripStopTimes(db, conf.NetworkId, tripId)
	})
	publisher := makeVehicleEventPublisher(log, natsConn, conf.VehicleEventSubject)
	s.interpolator = vehicle.NewInterpolator(
		time.Duration(conf.AnimationSeconds)*time.Second,
		time.Duration(conf.FrameMillis)*time.Millisecond,
		publisher.hooks())
	return s
}

// Run starts all lineview routines and shuts them down after receiving on
// shutdownSignal. No timer or animation loop survives the return.
func (s *Service) Run(shutdownSignal chan os.Signal) error {
	wg := sync.WaitGroup{}
	refreshShutdown := make(chan bool, 1)
	listenerShutdown := make(chan bool, 1)
	vehicleShutdown := make(chan bool, 1)
	webShutdown := make(chan bool, 1)

	s.log.Println("Starting disruption refresh loop")
	go s.runDisruptionRefreshLoop(&wg, refreshShutdown)
	s.log.Println("Starting realtime snapshot listener")
	go s.runSnapshotListener(&wg, listenerShutdown)
	s.log.Println("Starting vehicle position loop")
	go s.runVehiclePositionLoop(&wg, vehicleShutdown)
	s.log.Println("Starting web service")
	go s.runWebService(&wg, webShutdown)

	<-shutdownSignal
	s.log.Printf("Exiting on shutdown signal, shutting down subroutines")
	refreshShutdown <- true
	listenerShutdown <- true
	vehicleShutdown <- true
	webShutdown <- true
	wg.Wait()
	s.interpolator.Shutdown()
	s.log.Printf("Subroutines shut down, exiting lineview")
	return nil
}

// SelectTrip records the trip the view is following. Changing the selection
// logically cancels any in-flight detail fetch for the previous trip, its
// result is discarded on arrival.
func (s *Service) SelectTrip(tripId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTripId = tripId
}

// FetchSelectedTripDetail loads the full stop sequence for the selected trip.
// Duplicate concurrent fetches for the same trip are suppressed, and a result
// arriving after the selection moved on is discarded with ErrSuperseded.
func (s *Service) FetchSelectedTripDetail(ctx context.Context, tripId string) ([]*schedule.StopTime, error) {
	stopTimes, err := s.details.Fetch(ctx, tripId)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	selected := s.selectedTripId
	s.mu.Unlock()
	if selected != tripId {
		return nil, ErrSuperseded
	}
	return stopTimes, nil
}

// mergeContext assembles the MergeContext for one service date. Today uses the
// cached operator overrides and the latest feed snapshot; any other date is
// resolved from the store alone, the feed only describes today's operation.
func (s *Service) mergeContext(date time.Time, tripIds []string) (*realtime.MergeContext, error) {
	if isToday(date) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return &realtime.MergeContext{
			Cancellations: s.cancellations,
			ManualDelays:  s.manualDelays,
			Snapshot:      s.holder.Current(),
			IsToday:       true,
		}, nil
	}

	cancellations, err := schedule.GetCancelledTrips(s.db, s.conf.NetworkId, date, tripIds)
	if err != nil {
		return nil, err
	}
	manualDelays, err := schedule.GetManualDelays(s.db, s.conf.NetworkId, date, tripIds)
	if err != nil {
		return nil, err
	}
	return &realtime.MergeContext{
		Cancellations: cancellations,
		ManualDelays:  manualDelays,
	}, nil
}

func isToday(date time.Time) bool {
	now := time.Now()
	return date.Year() == now.Year() && date.Month() == now.Month() && date.Day() == now.Day()
}
