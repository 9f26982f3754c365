package lineview

import (
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/wclement60/bus-connect-sub003/business/realtime"
)

// runSnapshotListener subscribes to the pre-parsed realtime feed subject and
// installs each snapshot wholesale. A malformed message is dropped and the last
// good snapshot stays in place. Ends the subscription and returns on
// shutdownSignal.
func (s *Service) runSnapshotListener(wg *sync.WaitGroup, shutdownSignal chan bool) {
	wg.Add(1)
	defer wg.Done()

	ch := make(chan *nats.Msg, 64)
	s.log.Printf("Subscribing to realtime snapshots on subject:%s on nats: %v\n",
		s.conf.SnapshotSubject, s.natsConn.Servers())
	sub, err := s.natsConn.ChanSubscribe(s.conf.SnapshotSubject, ch)
	if err != nil {
		s.log.Printf("Unable to establish subscription to nats server: %v\n", err)
		return
	}

	for {
		select {
		case msg := <-ch:
			s.processSnapshotMsg(msg)
		case <-shutdownSignal:
			s.log.Printf("ending snapshot listener on shutdown signal\n")
			err = sub.Unsubscribe()
			if err != nil {
				s.log.Printf("Error unsubscribing to nats:%s", err)
			}
			return
		}
	}
}

// processSnapshotMsg un-marshals a realtime.Snapshot from a nats.Msg and swaps
// it in as the current snapshot
func (s *Service) processSnapshotMsg(msg *nats.Msg) {
	var snapshot realtime.Snapshot
	err := json.Unmarshal(msg.Data, &snapshot)
	if err != nil {
		s.log.Printf("error parsing realtime snapshot, keeping previous snapshot: %s", err)
		return
	}
	s.holder.Swap(&snapshot)
	s.log.Printf("installed realtime snapshot with %d delays, %d retimes, %d skips\n",
		len(snapshot.Delays), len(snapshot.UpdatedTimes), len(snapshot.SkippedStops))
}
