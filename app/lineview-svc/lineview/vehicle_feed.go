package lineview

import (
	"sync"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/wclement60/bus-connect-sub003/business/vehicle"
	"github.com/wclement60/bus-connect-sub003/foundation/httpclient"
)

const (
	feedRequestTimeout  = 10 * time.Second
	feedRequestAttempts = 2
)

// runVehiclePositionLoop polls the vehicle position feed on its own fixed
// interval, independent of the schedule refresh, and hands each fix set to the
// interpolator. A failed poll leaves the current animations running on the last
// good fixes.
func (s *Service) runVehiclePositionLoop(wg *sync.WaitGroup, shutdownSignal chan bool) {
	wg.Add(1)
	defer wg.Done()

	loopDuration := time.Duration(s.conf.VehiclePollEverySeconds) * time.Second
	sleepChan := make(chan bool)
	sleep := time.Duration(0) //poll immediately the first time

	routeFilter := make(map[string]bool, len(s.conf.RouteIds))
	for _, routeId := range s.conf.RouteIds {
		routeFilter[routeId] = true
	}

	for {
		go func() {
			time.Sleep(sleep)
			sleepChan <- true
		}()

		select {
		case <-shutdownSignal:
			s.log.Printf("Exiting vehicle position loop on shutdown signal")
			return
		case <-sleepChan:
		}

		sleep = loopDuration
		start := time.Now()

		fixes, err := getVehicleFixes(s.conf.VehiclePositionsUrl, routeFilter)
		if err != nil {
			s.log.Printf("error polling vehicle positions. error:%v\n", err)
			continue
		}
		s.interpolator.ApplyFixes(fixes)

		workTook := time.Now().Sub(start)
		if workTook >= loopDuration {
			sleep = time.Duration(0)
		} else {
			sleep = loopDuration - workTook
		}
	}
}

// getVehicleFixes retrieves the vehicle position feed and converts it into
// vehicle.Fix values, filtered to the routes of interest when a filter is
// configured. Feed entities missing an identifier or a position are skipped.
func getVehicleFixes(url string, routeFilter map[string]bool) ([]vehicle.Fix, error) {
	body, err := httpclient.GetBytesWithRetry(url, feedRequestTimeout, feedRequestAttempts, time.Second)
	if err != nil {
		return nil, err
	}
	feedMessage := gtfsrt.FeedMessage{}
	err = proto.Unmarshal(body, &feedMessage)
	if err != nil {
		return nil, err
	}

	var fixes []vehicle.Fix
	for _, entity := range feedMessage.Entity {
		vehiclePosition := entity.Vehicle
		if vehiclePosition == nil || vehiclePosition.Position == nil {
			continue
		}
		descriptor := vehiclePosition.Vehicle
		if descriptor == nil || descriptor.Id == nil {
			continue
		}

		fix := vehicle.Fix{
			VehicleId: *descriptor.Id,
			Position: vehicle.Position{
				Lat: float64(vehiclePosition.Position.GetLatitude()),
				Lon: float64(vehiclePosition.Position.GetLongitude()),
			},
			Bearing: float64(vehiclePosition.Position.GetBearing()),
		}
		if trip := vehiclePosition.Trip; trip != nil {
			fix.TripId = trip.GetTripId()
			if len(routeFilter) > 0 && !routeFilter[trip.GetRouteId()] {
				continue
			}
		} else if len(routeFilter) > 0 {
			continue
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}
