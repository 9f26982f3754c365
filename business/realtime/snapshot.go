// Package realtime merges the intermittent realtime feed with the static
// timetable: delay and retime lookup with key fallback, the precedence rules
// between operator overrides and feed data, display formatting, and journey
// progress over the resolved times.
package realtime

import (
	"fmt"
	"sync"
)

// StopTimeOverride carries retimed absolute day times for a stop from the feed.
// Either field may be empty when the feed only retimed one of the pair.
type StopTimeOverride struct {
	Arrival   string `json:"arrival,omitempty"`
	Departure string `json:"departure,omitempty"`
}

// Time returns the override's departure time, falling back to arrival
func (o StopTimeOverride) Time() string {
	if o.Departure != "" {
		return o.Departure
	}
	return o.Arrival
}

// Snapshot is one refresh of the pre-parsed realtime feed. Maps are keyed by
// "{trip_id}-{stop_id}-{stop_sequence}" with "{trip_id}-{stop_id}" as the
// fallback key. A new snapshot replaces the previous one wholesale, entries are
// never merged across refreshes.
type Snapshot struct {
	Delays       map[string]int              `json:"delays"`
	UpdatedTimes map[string]StopTimeOverride `json:"updatedTimes"`
	SkippedStops map[string]bool             `json:"skippedStops"`
}

// StopKey identifies a stop call on a trip. Sequence is nil when the caller does
// not know the stop sequence.
type StopKey struct {
	TripId   string
	StopId   string
	Sequence *uint32
}

// qualifiedKey is the sequence-qualified feed key, empty when no sequence is known
func (k StopKey) qualifiedKey() string {
	if k.Sequence == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%d", k.TripId, k.StopId, *k.Sequence)
}

// bareKey is the feed key without the stop sequence
func (k StopKey) bareKey() string {
	return fmt.Sprintf("%s-%s", k.TripId, k.StopId)
}

// DelayFor looks up a feed delay in minutes for a stop call, trying the
// sequence-qualified key first and then the bare key. This two-step lookup is the
// single place feed keys are built, call sites never concatenate keys themselves.
func (s *Snapshot) DelayFor(key StopKey) (int, bool) {
	if s == nil || s.Delays == nil {
		return 0, false
	}
	if qualified := key.qualifiedKey(); qualified != "" {
		if delay, present := s.Delays[qualified]; present {
			return delay, true
		}
	}
	delay, present := s.Delays[key.bareKey()]
	return delay, present
}

// UpdatedTimeFor looks up a retimed stop call with the same two-step key fallback
// as DelayFor
func (s *Snapshot) UpdatedTimeFor(key StopKey) (StopTimeOverride, bool) {
	if s == nil || s.UpdatedTimes == nil {
		return StopTimeOverride{}, false
	}
	if qualified := key.qualifiedKey(); qualified != "" {
		if override, present := s.UpdatedTimes[qualified]; present {
			return override, true
		}
	}
	override, present := s.UpdatedTimes[key.bareKey()]
	return override, present
}

// IsSkipped reports whether a stop call is skipped, with the same two-step key
// fallback as DelayFor
func (s *Snapshot) IsSkipped(key StopKey) bool {
	if s == nil || s.SkippedStops == nil {
		return false
	}
	if qualified := key.qualifiedKey(); qualified != "" {
		if s.SkippedStops[qualified] {
			return true
		}
	}
	return s.SkippedStops[key.bareKey()]
}

// SnapshotHolder owns the current Snapshot for concurrent readers. Refreshes
// replace the snapshot wholesale, last writer wins, so a refresh racing another
// can never leave a half-merged snapshot visible.
type SnapshotHolder struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// Swap installs the newest snapshot
func (h *SnapshotHolder) Swap(snapshot *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = snapshot
}

// Current returns the most recent snapshot, or nil before the first successful
// refresh. A failed refresh keeps the previous snapshot in place.
func (h *SnapshotHolder) Current() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}
