package lineview

import (
	"sync"
	"time"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

// runDisruptionRefreshLoop reloads today's cancellations and manual delays on a
// fixed interval so stop time resolution does not query the store per request.
// A failed refresh keeps the previous overrides in place, the failure is
// recoverable and must not clear the display.
func (s *Service) runDisruptionRefreshLoop(wg *sync.WaitGroup, shutdownSignal chan bool) {
	wg.Add(1)
	defer wg.Done()

	loopDuration := time.Duration(s.conf.RefreshEverySeconds) * time.Second
	sleepChan := make(chan bool)
	sleep := time.Duration(0) //refresh immediately the first time

	for {
		go func() {
			time.Sleep(sleep)
			sleepChan <- true
		}()

		select {
		case <-shutdownSignal:
			s.log.Printf("Exiting disruption refresh loop on shutdown signal")
			return
		case <-sleepChan:
		}

		sleep = loopDuration

		// mark the time we start working
		start := time.Now()

		cancellations, err := schedule.GetCancelledTripsForDate(s.db, s.conf.NetworkId, start)
		if err != nil {
			s.log.Printf("error refreshing cancellations, keeping previous set. error:%v\n", err)
			continue
		}
		manualDelays, err := schedule.GetManualDelaysForDate(s.db, s.conf.NetworkId, start)
		if err != nil {
			s.log.Printf("error refreshing manual delays, keeping previous set. error:%v\n", err)
			continue
		}

		s.mu.Lock()
		s.cancellations = cancellations
		s.manualDelays = manualDelays
		s.mu.Unlock()

		workTook := time.Now().Sub(start)
		if workTook >= loopDuration {
			sleep = time.Duration(0)
		} else {
			sleep = loopDuration - workTook
		}
	}
}
