// Package tilt turns raw device-orientation gamma readings into discrete
// correct/pass gestures.
//
// With the device held in landscape against the forehead, gamma (y-axis
// rotation, roughly -90..+90 degrees) tracks the up/down tilt. In
// landscape-primary, tilting up (away from the face) drives gamma up; in
// landscape-secondary the screen is mounted the other way around and the
// sign flips. Whether a gamma stream is available at all is the
// environment's concern (see the env package); the recognizer itself is
// a pure state machine over readings.
package tilt

import "time"

// Action is a recognized gesture.
type Action int

const (
	// ActionNone means no gesture was recognized.
	ActionNone Action = iota
	// ActionCorrect is a tilt up, away from the face.
	ActionCorrect
	// ActionWrong is a tilt down, toward the chest.
	ActionWrong
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionCorrect:
		return "correct"
	case ActionWrong:
		return "wrong"
	default:
		return "none"
	}
}

// Orientation is the screen mounting mode during play.
type Orientation int

const (
	// LandscapePrimary has the home button on the right.
	LandscapePrimary Orientation = iota
	// LandscapeSecondary has the home button on the left.
	LandscapeSecondary
)

const (
	// Threshold is the angular delta from baseline, in degrees, that a
	// reading must exceed (strictly) to trigger a gesture.
	Threshold = 30.0
	// Cooldown is how long after a trigger further readings are ignored.
	// At expiry the recognizer re-baselines so tilting back to neutral
	// does not count as a second gesture.
	Cooldown = 500 * time.Millisecond
)

// Recognizer detects tilt gestures from a gamma reading stream. The zero
// value is ready to use; the first reading becomes the baseline.
type Recognizer struct {
	baseline      float64
	haveBaseline  bool
	inCooldown    bool
	cooldownUntil time.Time
}

// Observe processes one gamma reading and returns the recognized action,
// if any. Readings during the cooldown window are ignored; the first
// reading at or after cooldown expiry becomes the new baseline.
func (r *Recognizer) Observe(gamma float64, o Orientation, now time.Time) Action {
	if !r.haveBaseline {
		r.baseline = gamma
		r.haveBaseline = true
		return ActionNone
	}
	if r.inCooldown {
		if now.Before(r.cooldownUntil) {
			return ActionNone
		}
		r.inCooldown = false
		r.baseline = gamma
		return ActionNone
	}

	delta := gamma - r.baseline
	if o == LandscapeSecondary {
		delta = -delta
	}

	var action Action
	switch {
	case delta > Threshold:
		action = ActionCorrect
	case delta < -Threshold:
		action = ActionWrong
	default:
		return ActionNone
	}

	r.inCooldown = true
	r.cooldownUntil = now.Add(Cooldown)
	return action
}

// Reset clears the baseline and cooldown so the next reading re-arms the
// recognizer. Call it when a round starts or resumes.
func (r *Recognizer) Reset() {
	r.haveBaseline = false
	r.inCooldown = false
	r.cooldownUntil = time.Time{}
}
