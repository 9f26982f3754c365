// Package vehicle derives smooth live vehicle positions from a periodically
// polled fix feed: each vehicle owns an animation state that interpolates
// between its previous and newest fix, plus a one-shot trip detail fetch with
// duplicate suppression.
package vehicle

import (
	"math"
	"sync"
	"time"
)

// Position is a geographic point
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fix is one polled vehicle position. Fixes are never mutated, a newer fix
// supersedes the previous one.
type Fix struct {
	VehicleId string   `json:"vehicle_id"`
	TripId    string   `json:"trip_id"`
	Position  Position `json:"position"`
	Bearing   float64  `json:"bearing"`
}

// Hooks receive vehicle lifecycle notifications. Any field may be nil.
type Hooks struct {
	OnAppeared func(fix Fix)
	OnUpdated  func(fix Fix)
	OnRemoved  func(vehicleId string)
	// OnFrame is invoked from each vehicle's animation loop with the current
	// interpolated position and bearing, and once more with the exact target
	// when the animation completes.
	OnFrame func(vehicleId string, position Position, bearing float64)
}

// vehicleAnimation is the derived animation state owned by the Interpolator for
// one vehicle: where the marker is animating from, what fix it is heading to,
// and the running animation handle.
type vehicleAnimation struct {
	fix       Fix
	lastPos   Position
	startedAt time.Time
	running   bool
	cancel    chan struct{}
}

// Interpolator owns all vehicle animation state in a single mutex-guarded map
// keyed by vehicle id. Other components read positions only through Position,
// never by touching the state directly.
type Interpolator struct {
	mu            sync.Mutex
	vehicles      map[string]*vehicleAnimation
	duration      time.Duration
	frameInterval time.Duration
	hooks         Hooks
	wg            sync.WaitGroup
	now           func() time.Time
}

// NewInterpolator creates an Interpolator animating each new fix over duration
// with frames every frameInterval
func NewInterpolator(duration time.Duration, frameInterval time.Duration, hooks Hooks) *Interpolator {
	return &Interpolator{
		vehicles:      make(map[string]*vehicleAnimation),
		duration:      duration,
		frameInterval: frameInterval,
		hooks:         hooks,
		now:           time.Now,
	}
}

// ApplyFixes applies the newest polled fix set. Vehicles absent from the set are
// torn down, new vehicles appear snapped to their fix, and a changed position
// restarts that vehicle's animation from wherever its marker currently is. A fix
// with invalid coordinates is dropped without disturbing the other vehicles.
func (ip *Interpolator) ApplyFixes(fixes []Fix) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	now := ip.now()

	seen := make(map[string]bool, len(fixes))
	for _, fix := range fixes {
		if !validPosition(fix.Position) {
			continue
		}
		seen[fix.VehicleId] = true

		animation, present := ip.vehicles[fix.VehicleId]
		if !present {
			ip.vehicles[fix.VehicleId] = &vehicleAnimation{fix: fix, lastPos: fix.Position}
			if ip.hooks.OnAppeared != nil {
				ip.hooks.OnAppeared(fix)
			}
			continue
		}

		if animation.fix.Position == fix.Position {
			// position unchanged, apply bearing and trip without animating
			animation.fix = fix
			continue
		}

		start := ip.positionLocked(animation, now)
		ip.cancelLocked(animation)
		animation.lastPos = start
		animation.fix = fix
		animation.startedAt = now
		animation.running = true
		animation.cancel = make(chan struct{})
		ip.startAnimationLocked(fix.VehicleId, animation)
		if ip.hooks.OnUpdated != nil {
			ip.hooks.OnUpdated(fix)
		}
	}

	for vehicleId, animation := range ip.vehicles {
		if seen[vehicleId] {
			continue
		}
		ip.cancelLocked(animation)
		delete(ip.vehicles, vehicleId)
		if ip.hooks.OnRemoved != nil {
			ip.hooks.OnRemoved(vehicleId)
		}
	}
}

// startAnimationLocked spawns the per-vehicle animation loop. The loop emits one
// frame per frameInterval and snaps exactly to the target fix when the animation
// duration has elapsed.
func (ip *Interpolator) startAnimationLocked(vehicleId string, animation *vehicleAnimation) {
	cancel := animation.cancel
	ip.wg.Add(1)
	go func() {
		defer ip.wg.Done()
		ticker := time.NewTicker(ip.frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				position, bearing, done := ip.animationFrame(vehicleId, cancel)
				if position != nil && ip.hooks.OnFrame != nil {
					ip.hooks.OnFrame(vehicleId, *position, bearing)
				}
				if done {
					return
				}
			}
		}
	}()
}

// animationFrame advances one vehicle's animation and reports whether it
// completed. It re-checks under the lock that the animation it was spawned for
// is still the live one, a newer fix may have replaced it.
func (ip *Interpolator) animationFrame(vehicleId string, cancel chan struct{}) (*Position, float64, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	animation, present := ip.vehicles[vehicleId]
	if !present || animation.cancel != cancel {
		return nil, 0, true
	}
	elapsed := ip.now().Sub(animation.startedAt)
	if elapsed >= ip.duration {
		animation.lastPos = animation.fix.Position
		animation.running = false
		animation.cancel = nil
		return &animation.fix.Position, animation.fix.Bearing, true
	}
	position := lerpPosition(animation.lastPos, animation.fix.Position, float64(elapsed)/float64(ip.duration))
	return &position, animation.fix.Bearing, false
}

// Position returns the vehicle's current rendered position, interpolated when an
// animation is running
func (ip *Interpolator) Position(vehicleId string) (Position, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	animation, present := ip.vehicles[vehicleId]
	if !present {
		return Position{}, false
	}
	return ip.positionLocked(animation, ip.now()), true
}

// Snapshot returns the current fix and rendered position of every vehicle
func (ip *Interpolator) Snapshot() map[string]Fix {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	now := ip.now()
	results := make(map[string]Fix, len(ip.vehicles))
	for vehicleId, animation := range ip.vehicles {
		fix := animation.fix
		fix.Position = ip.positionLocked(animation, now)
		results[vehicleId] = fix
	}
	return results
}

// Pause cancels every running animation and snaps each marker to its target fix,
// keeping the state so the next fix resumes cleanly. Used while the view is
// being manipulated and motion must stop.
func (ip *Interpolator) Pause() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	for _, animation := range ip.vehicles {
		ip.cancelLocked(animation)
		animation.lastPos = animation.fix.Position
	}
}

// Shutdown tears down all vehicle state and waits for every animation loop to
// exit. Used when the enclosing view goes away.
func (ip *Interpolator) Shutdown() {
	ip.mu.Lock()
	for _, animation := range ip.vehicles {
		ip.cancelLocked(animation)
	}
	ip.vehicles = make(map[string]*vehicleAnimation)
	ip.mu.Unlock()
	ip.wg.Wait()
}

func (ip *Interpolator) cancelLocked(animation *vehicleAnimation) {
	if animation.running && animation.cancel != nil {
		close(animation.cancel)
	}
	animation.running = false
	animation.cancel = nil
}

// positionLocked computes the vehicle's rendered position at now from its
// animation state
func (ip *Interpolator) positionLocked(animation *vehicleAnimation, now time.Time) Position {
	if !animation.running {
		return animation.fix.Position
	}
	elapsed := now.Sub(animation.startedAt)
	if elapsed >= ip.duration {
		return animation.fix.Position
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return lerpPosition(animation.lastPos, animation.fix.Position, float64(elapsed)/float64(ip.duration))
}

func lerpPosition(from Position, to Position, fraction float64) Position {
	return Position{
		Lat: from.Lat + (to.Lat-from.Lat)*fraction,
		Lon: from.Lon + (to.Lon-from.Lon)*fraction,
	}
}

func validPosition(position Position) bool {
	if math.IsNaN(position.Lat) || math.IsNaN(position.Lon) {
		return false
	}
	return position.Lat >= -90 && position.Lat <= 90 && position.Lon >= -180 && position.Lon <= 180
}
