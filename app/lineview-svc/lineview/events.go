package lineview

import (
	"encoding/json"
	logger "log"

	"github.com/nats-io/nats.go"

	"github.com/wclement60/bus-connect-sub003/business/vehicle"
)

// vehicleEventPublisher publishes vehicle lifecycle events as json messages on a
// NATS subject for downstream consumers
type vehicleEventPublisher struct {
	log      *logger.Logger
	natsConn *nats.Conn
	subject  string
}

func makeVehicleEventPublisher(log *logger.Logger, natsConn *nats.Conn, subject string) *vehicleEventPublisher {
	return &vehicleEventPublisher{
		log:      log,
		natsConn: natsConn,
		subject:  subject,
	}
}

// vehicleEvent is the wire form of a lifecycle event
type vehicleEvent struct {
	Event     string            `json:"event"`
	VehicleId string            `json:"vehicle_id"`
	TripId    string            `json:"trip_id,omitempty"`
	Position  *vehicle.Position `json:"position,omitempty"`
	Bearing   float64           `json:"bearing,omitempty"`
}

// hooks adapts the publisher to the interpolator's lifecycle hooks. Frame
// updates are not published, only appearance, target updates, and removal.
func (p *vehicleEventPublisher) hooks() vehicle.Hooks {
	return vehicle.Hooks{
		OnAppeared: func(fix vehicle.Fix) {
			p.publish(vehicleEvent{Event: "appeared", VehicleId: fix.VehicleId, TripId: fix.TripId,
				Position: &fix.Position, Bearing: fix.Bearing})
		},
		OnUpdated: func(fix vehicle.Fix) {
			p.publish(vehicleEvent{Event: "updated", VehicleId: fix.VehicleId, TripId: fix.TripId,
				Position: &fix.Position, Bearing: fix.Bearing})
		},
		OnRemoved: func(vehicleId string) {
			p.publish(vehicleEvent{Event: "removed", VehicleId: vehicleId})
		},
	}
}

func (p *vehicleEventPublisher) publish(event vehicleEvent) {
	if p.natsConn == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Printf("error marshaling vehicle event: %v\n", err)
		return
	}
	err = p.natsConn.Publish(p.subject, payload)
	if err != nil {
		p.log.Printf("error publishing vehicle event to %s: %v\n", p.subject, err)
	}
}
