// Package env abstracts host capabilities the game uses best-effort:
// exclusive fullscreen, orientation locking, and the device orientation
// sensor. Implementations report unsupported features as typed results
// so callers can degrade instead of probing the host.
package env

import (
	"errors"
	"time"

	"github.com/verte-zerg/guessup/internal/tilt"
)

// ErrUnsupported is returned by capability calls the environment cannot
// provide. Callers treat it as a warning, never a failure.
var ErrUnsupported = errors.New("not supported by this environment")

// Reading is one sample from the orientation sensor.
type Reading struct {
	Gamma       float64
	Orientation tilt.Orientation
	At          time.Time
}

// Capabilities is the boundary to the host environment. All methods are
// best-effort: a session keeps running whatever they return.
type Capabilities interface {
	// EnterFullscreen requests exclusive fullscreen for the round.
	EnterFullscreen() error
	// ExitFullscreen releases fullscreen.
	ExitFullscreen() error
	// LockLandscape locks the screen to landscape for the round.
	LockLandscape() error
	// UnlockOrientation releases the orientation lock.
	UnlockOrientation() error
	// OrientationReadings returns the sensor stream, or ok=false when
	// the environment has no orientation sensor. Callers then fall back
	// to manual tap input.
	OrientationReadings() (readings <-chan Reading, ok bool)
}

// Terminal is the capability set of a plain terminal: no fullscreen, no
// orientation control, no tilt sensor.
type Terminal struct{}

// EnterFullscreen implements Capabilities.
func (Terminal) EnterFullscreen() error { return ErrUnsupported }

// ExitFullscreen implements Capabilities.
func (Terminal) ExitFullscreen() error { return ErrUnsupported }

// LockLandscape implements Capabilities.
func (Terminal) LockLandscape() error { return ErrUnsupported }

// UnlockOrientation implements Capabilities.
func (Terminal) UnlockOrientation() error { return ErrUnsupported }

// OrientationReadings implements Capabilities.
func (Terminal) OrientationReadings() (<-chan Reading, bool) { return nil, false }
