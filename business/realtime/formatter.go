package realtime

import (
	"fmt"

	"github.com/wclement60/bus-connect-sub003/business/data/schedule"
)

// DisplayRecord is the display-ready form of a resolved stop time. Delay and
// DisplayDelay are nil when no delay applies; DisplayDelay is also nil for a
// confirmed zero delay.
type DisplayRecord struct {
	Original     string  `json:"original"`
	Adjusted     string  `json:"adjusted"`
	Delay        *int    `json:"delay"`
	Status       Status  `json:"status"`
	DisplayDelay *string `json:"displayDelay"`
	IsRealtime   bool    `json:"isRealtime"`
	Reason       string  `json:"reason,omitempty"`
}

// FormatStopTime resolves a stop call and renders it for display. This is a pure
// function of the MergeContext and its arguments: the same inputs always yield an
// identical record.
func (c *MergeContext) FormatStopTime(tripId string, stopId string, sequence *uint32, theoretical string) DisplayRecord {
	resolution := c.Resolve(tripId, stopId, sequence, theoretical)
	record := DisplayRecord{
		Original:   schedule.TrimToHHMM(resolution.Theoretical),
		Adjusted:   resolution.Adjusted,
		Delay:      resolution.DelayMinutes,
		Status:     resolution.Status,
		IsRealtime: resolution.IsRealtime,
		Reason:     resolution.Reason,
	}
	if resolution.DelayMinutes != nil && *resolution.DelayMinutes != 0 {
		display := formatDelay(*resolution.DelayMinutes)
		record.DisplayDelay = &display
	}
	return record
}

func formatDelay(delay int) string {
	if delay > 0 {
		return fmt.Sprintf("+%d min", delay)
	}
	return fmt.Sprintf("%d min", delay)
}
