// Package session drives a timed charades round: countdown, running
// timer, pause/resume, scoring, and the final history record. All
// mutation is serialized through the machine's lock; timer callbacks and
// sensor readings may arrive on other goroutines.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/verte-zerg/guessup/internal/card"
	"github.com/verte-zerg/guessup/internal/config"
	"github.com/verte-zerg/guessup/internal/deck"
	"github.com/verte-zerg/guessup/internal/env"
	"github.com/verte-zerg/guessup/internal/history"
	"github.com/verte-zerg/guessup/internal/sampler"
	"github.com/verte-zerg/guessup/internal/sound"
	"github.com/verte-zerg/guessup/internal/tilt"
)

// State is the round lifecycle state.
type State int

const (
	// StateIdle is the initial state before Start.
	StateIdle State = iota
	// StateCountdown counts down before the timer runs.
	StateCountdown
	// StateRunning is active play: the timer decrements, taps and tilts count.
	StateRunning
	// StatePaused holds the timer; taps and tilts are ignored.
	StatePaused
	// StateEnded is terminal for this machine. Play again builds a new one.
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCountdown:
		return "countdown"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Action is a scoring event from a tap or a tilt.
type Action int

const (
	// ActionCorrect marks the current card guessed.
	ActionCorrect Action = iota
	// ActionWrong marks the current card skipped.
	ActionWrong
)

// tickSoundWindow is the remaining-seconds window in which each timer
// tick plays a sound.
const tickSoundWindow = 10

// Recorder persists finished rounds. *history.Store satisfies it.
type Recorder interface {
	Append(ctx context.Context, rec history.Record) (history.Record, error)
}

// Config wires a machine's collaborators. Zero fields get safe defaults:
// runtime scheduler, terminal capabilities, silent sounds, no recorder.
type Config struct {
	Deck      deck.Deck
	Settings  config.Settings
	Scheduler Scheduler
	Caps      env.Capabilities
	Sounds    sound.Player
	Recorder  Recorder
	// Notify is called after every externally visible change. It must
	// not call back into the machine.
	Notify func()
}

// Feedback is the transient pulse shown after a tap or tilt.
type Feedback struct {
	Action  Action
	Visible bool
}

// Snapshot is a copy of the machine's visible state.
type Snapshot struct {
	State          State
	DeckID         string
	DeckName       string
	CountdownValue int
	TimeRemaining  int
	CurrentCard    card.Card
	CorrectCount   int
	WrongCount     int
	CorrectWords   []string
	SkippedWords   []string
	Feedback       Feedback
	TiltActive     bool
	Record         *history.Record
}

// Machine is the session state machine.
type Machine struct {
	mu sync.Mutex

	deck     deck.Deck
	settings config.Settings
	sched    Scheduler
	caps     env.Capabilities
	sounds   sound.Player
	recorder Recorder
	notify   func()

	state          State
	countdownValue int
	timeRemaining  int
	currentCard    card.Card
	correctCount   int
	wrongCount     int
	correctWords   []string
	skippedWords   []string
	correctSet     map[string]struct{}
	skippedSet     map[string]struct{}
	feedback       Feedback
	startedAt      time.Time
	record         *history.Record

	cards      *sampler.Sampler
	recognizer tilt.Recognizer
	tiltActive bool

	countdownTimer TimerHandle
	roundTicker    TimerHandle
	feedbackTimer  TimerHandle
	feedbackGen    uint64
	sensorStop     chan struct{}
}

// New builds a machine for one deck. The machine starts idle.
func New(cfg Config) *Machine {
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewScheduler()
	}
	if cfg.Caps == nil {
		cfg.Caps = env.Terminal{}
	}
	if cfg.Sounds == nil {
		cfg.Sounds = sound.Nop{}
	}
	if cfg.Notify == nil {
		cfg.Notify = func() {}
	}
	return &Machine{
		deck:     cfg.Deck,
		settings: cfg.Settings,
		sched:    cfg.Scheduler,
		caps:     cfg.Caps,
		sounds:   cfg.Sounds,
		recorder: cfg.Recorder,
		notify:   cfg.Notify,
		state:    StateIdle,
	}
}

// Start begins the round: resets counters, shuffles the draw pool,
// requests fullscreen and a landscape lock best-effort, arms the tilt
// sensor when available, and enters the countdown. An empty deck is the
// only error; the caller should send the player back to deck selection.
func (m *Machine) Start() error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	if len(m.deck.Cards) == 0 {
		m.mu.Unlock()
		return sampler.ErrEmptyDeck
	}

	m.cards = sampler.New(m.deck.Cards)
	m.correctCount = 0
	m.wrongCount = 0
	m.correctWords = nil
	m.skippedWords = nil
	m.correctSet = map[string]struct{}{}
	m.skippedSet = map[string]struct{}{}
	m.timeRemaining = m.settings.Timer
	m.startedAt = time.Now()
	m.drawLocked()

	m.capsCall("enter fullscreen", m.caps.EnterFullscreen)
	m.capsCall("lock orientation", m.caps.LockLandscape)
	m.startSensorLocked()

	m.recognizer.Reset()
	m.startCountdownLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

// Pause stops the timer. Taps and tilts are ignored until Resume.
func (m *Machine) Pause() {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return
	}
	m.stopTimer(&m.roundTicker)
	m.state = StatePaused
	m.mu.Unlock()
	m.notify()
}

// Resume re-runs the countdown and then restarts the timer, mirroring
// the initial start.
func (m *Machine) Resume() {
	m.mu.Lock()
	if m.state != StatePaused {
		m.mu.Unlock()
		return
	}
	m.recognizer.Reset()
	m.startCountdownLocked()
	m.mu.Unlock()
	m.notify()
}

// End finishes the round early. It is a no-op before Start and after the
// round has already ended.
func (m *Machine) End() {
	m.mu.Lock()
	if m.state == StateIdle || m.state == StateEnded {
		m.mu.Unlock()
		return
	}
	m.endLocked()
	m.mu.Unlock()
	m.notify()
}

// Tap records a manual correct/wrong event. Outside the running state it
// is a no-op.
func (m *Machine) Tap(action Action) {
	m.mu.Lock()
	changed := m.markLocked(action)
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// Cleanup cancels every outstanding timer and the sensor loop without
// recording anything. Call it when the round is abandoned (for example
// the UI is torn down mid-game).
func (m *Machine) Cleanup() {
	m.mu.Lock()
	m.stopTimer(&m.countdownTimer)
	m.stopTimer(&m.roundTicker)
	m.stopTimer(&m.feedbackTimer)
	m.stopSensorLocked()
	m.capsCall("unlock orientation", m.caps.UnlockOrientation)
	m.capsCall("exit fullscreen", m.caps.ExitFullscreen)
	m.mu.Unlock()
}

// capsCall runs a best-effort capability request. Environments without
// the capability report ErrUnsupported, which is not worth logging.
func (m *Machine) capsCall(what string, fn func() error) {
	if err := fn(); err != nil && err != env.ErrUnsupported {
		logErrf("could not %s: %v\n", what, err)
	}
}

// Snapshot returns a copy of the visible state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:          m.state,
		DeckID:         m.deck.ID,
		DeckName:       m.deck.Name,
		CountdownValue: m.countdownValue,
		TimeRemaining:  m.timeRemaining,
		CurrentCard:    m.currentCard,
		CorrectCount:   m.correctCount,
		WrongCount:     m.wrongCount,
		CorrectWords:   append([]string(nil), m.correctWords...),
		SkippedWords:   append([]string(nil), m.skippedWords...),
		Feedback:       m.feedback,
		TiltActive:     m.tiltActive,
		Record:         m.record,
	}
}

// startCountdownLocked enters the countdown state and arms the 1-second
// countdown ticker. A zero-length countdown goes straight to running.
func (m *Machine) startCountdownLocked() {
	m.stopTimer(&m.countdownTimer)
	m.countdownValue = m.settings.Countdown
	if m.countdownValue < 1 {
		m.startTimerLocked()
		return
	}
	m.state = StateCountdown
	m.countdownTimer = m.sched.Every(time.Second, m.countdownTick)
}

func (m *Machine) countdownTick() {
	m.mu.Lock()
	if m.state != StateCountdown {
		m.mu.Unlock()
		return
	}
	m.countdownValue--
	if m.countdownValue < 1 {
		m.stopTimer(&m.countdownTimer)
		m.startTimerLocked()
	}
	m.mu.Unlock()
	m.notify()
}

// startTimerLocked enters the running state and arms the round ticker.
func (m *Machine) startTimerLocked() {
	m.stopTimer(&m.roundTicker)
	m.state = StateRunning
	m.roundTicker = m.sched.Every(time.Second, m.roundTick)
}

func (m *Machine) roundTick() {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return
	}
	m.timeRemaining--
	switch {
	case m.timeRemaining <= 0:
		m.timeRemaining = 0
		m.endLocked()
	case m.timeRemaining <= tickSoundWindow:
		m.sounds.Tick()
	}
	m.mu.Unlock()
	m.notify()
}

// endLocked stops the round timers, plays the finish cue, records the
// round, and releases fullscreen and orientation.
func (m *Machine) endLocked() {
	m.stopTimer(&m.countdownTimer)
	m.stopTimer(&m.roundTicker)
	m.stopSensorLocked()
	m.state = StateEnded
	m.sounds.Finish()

	rec := history.Record{
		DeckID:       m.deck.ID,
		DeckName:     m.deck.Name,
		StartedAt:    m.startedAt,
		Duration:     m.settings.Timer - m.timeRemaining,
		CorrectWords: append([]string(nil), m.correctWords...),
		SkippedWords: append([]string(nil), m.skippedWords...),
	}
	if m.recorder != nil {
		saved, err := m.recorder.Append(context.Background(), rec)
		if err != nil {
			logErrf("failed to save game record: %v\n", err)
			rec.Accuracy = history.Accuracy(rec.CorrectWords, rec.SkippedWords)
			m.record = &rec
		} else {
			m.record = &saved
		}
	} else {
		rec.Accuracy = history.Accuracy(rec.CorrectWords, rec.SkippedWords)
		m.record = &rec
	}

	m.capsCall("unlock orientation", m.caps.UnlockOrientation)
	m.capsCall("exit fullscreen", m.caps.ExitFullscreen)
}

// markLocked scores the current card and draws the next one. It reports
// whether anything changed.
func (m *Machine) markLocked(action Action) bool {
	if m.state != StateRunning || m.currentCard.IsZero() {
		return false
	}
	word := m.currentCard.Display()
	switch action {
	case ActionCorrect:
		m.correctCount++
		if _, ok := m.correctSet[word]; !ok {
			m.correctSet[word] = struct{}{}
			m.correctWords = append(m.correctWords, word)
		}
		m.sounds.Correct()
	case ActionWrong:
		m.wrongCount++
		if _, ok := m.skippedSet[word]; !ok {
			m.skippedSet[word] = struct{}{}
			m.skippedWords = append(m.skippedWords, word)
		}
		m.sounds.Pass()
	}
	m.drawLocked()
	m.pulseFeedbackLocked(action)
	return true
}

// pulseFeedbackLocked shows the tap feedback and schedules its clear. A
// new pulse replaces a pending clear so rapid consecutive taps never get
// cut short by a stale timer. The generation counter covers the window
// where a replaced clear callback already fired and is waiting on the
// lock: such a callback sees a newer generation and leaves the pulse
// alone.
func (m *Machine) pulseFeedbackLocked(action Action) {
	m.stopTimer(&m.feedbackTimer)
	m.feedbackGen++
	gen := m.feedbackGen
	m.feedback = Feedback{Action: action, Visible: true}
	m.feedbackTimer = m.sched.AfterFunc(m.settings.FeedbackDuration(), func() {
		m.clearFeedback(gen)
	})
}

func (m *Machine) clearFeedback(gen uint64) {
	m.mu.Lock()
	if gen != m.feedbackGen {
		m.mu.Unlock()
		return
	}
	m.feedback = Feedback{}
	m.stopTimer(&m.feedbackTimer)
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) drawLocked() {
	next, err := m.cards.Next()
	if err != nil {
		// Start guards against an empty deck; keep the old card if the
		// sampler still has nothing.
		logErrf("failed to draw card: %v\n", err)
		return
	}
	m.currentCard = next
}

// startSensorLocked arms the tilt loop when the settings ask for it and
// the environment has a sensor. Without one, manual taps remain the only
// input.
func (m *Machine) startSensorLocked() {
	if !m.settings.Tilt {
		return
	}
	readings, ok := m.caps.OrientationReadings()
	if !ok {
		logErrf("orientation sensor unavailable; tilt input disabled\n")
		return
	}
	m.tiltActive = true
	stop := make(chan struct{})
	m.sensorStop = stop
	go func() {
		for {
			select {
			case <-stop:
				return
			case r, ok := <-readings:
				if !ok {
					return
				}
				m.handleReading(r)
			}
		}
	}()
}

func (m *Machine) stopSensorLocked() {
	if m.sensorStop != nil {
		close(m.sensorStop)
		m.sensorStop = nil
	}
	m.tiltActive = false
}

func (m *Machine) handleReading(r env.Reading) {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return
	}
	var changed bool
	switch m.recognizer.Observe(r.Gamma, r.Orientation, r.At) {
	case tilt.ActionCorrect:
		changed = m.markLocked(ActionCorrect)
	case tilt.ActionWrong:
		changed = m.markLocked(ActionWrong)
	}
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// stopTimer stops and clears a timer handle slot.
func (m *Machine) stopTimer(h *TimerHandle) {
	if *h != nil {
		(*h).Stop()
		*h = nil
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
