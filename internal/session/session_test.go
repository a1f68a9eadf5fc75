package session

import (
	"context"
	"testing"
	"time"

	"github.com/verte-zerg/guessup/internal/card"
	"github.com/verte-zerg/guessup/internal/config"
	"github.com/verte-zerg/guessup/internal/deck"
	"github.com/verte-zerg/guessup/internal/env"
	"github.com/verte-zerg/guessup/internal/history"
	"github.com/verte-zerg/guessup/internal/sampler"
	"github.com/verte-zerg/guessup/internal/tilt"
)

// fakeScheduler hands out timers that only fire when the test says so.
type fakeScheduler struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	d         time.Duration
	f         func()
	repeating bool
	stopped   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) TimerHandle {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Every(d time.Duration, f func()) TimerHandle {
	t := &fakeTimer{d: d, f: f, repeating: true}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() { t.stopped = true }

// tick fires every live repeating timer once, simulating one second.
func (s *fakeScheduler) tick() {
	live := make([]*fakeTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if t.repeating && !t.stopped {
			live = append(live, t)
		}
	}
	for _, t := range live {
		t.f()
	}
}

// fireOneShots fires pending non-repeating timers once.
func (s *fakeScheduler) fireOneShots() {
	pending := make([]*fakeTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if !t.repeating && !t.stopped {
			pending = append(pending, t)
		}
	}
	for _, t := range pending {
		t.stopped = true
		t.f()
	}
}

func (s *fakeScheduler) liveRepeating() int {
	n := 0
	for _, t := range s.timers {
		if t.repeating && !t.stopped {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	records []history.Record
}

func (r *fakeRecorder) Append(_ context.Context, rec history.Record) (history.Record, error) {
	rec.ID = "rec"
	rec.Accuracy = history.Accuracy(rec.CorrectWords, rec.SkippedWords)
	r.records = append(r.records, rec)
	return rec, nil
}

type countingSounds struct {
	ticks, finishes, corrects, passes int
}

func (s *countingSounds) Tick()    { s.ticks++ }
func (s *countingSounds) Finish()  { s.finishes++ }
func (s *countingSounds) Correct() { s.corrects++ }
func (s *countingSounds) Pass()    { s.passes++ }

func testDeck(texts ...string) deck.Deck {
	cards := make([]card.Card, len(texts))
	for i, t := range texts {
		cards[i] = card.Label(t)
	}
	return deck.Deck{ID: "en-test", Name: "Test", Locale: "en", Cards: cards}
}

func testSettings(timer, countdown int) config.Settings {
	s := config.DefaultSettings()
	s.Timer = timer
	s.Countdown = countdown
	s.Tilt = false
	return s
}

func TestStartEmptyDeck(t *testing.T) {
	m := New(Config{Deck: testDeck(), Settings: testSettings(60, 3), Scheduler: &fakeScheduler{}})
	if err := m.Start(); err != sampler.ErrEmptyDeck {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	if m.Snapshot().State != StateIdle {
		t.Fatalf("machine must stay idle after failed start")
	}
}

func TestStartTwice(t *testing.T) {
	m := New(Config{Deck: testDeck("a"), Settings: testSettings(60, 0), Scheduler: &fakeScheduler{}})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Start(); err == nil {
		t.Fatalf("second Start must fail")
	}
}

func TestCountdownThenRunning(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("a", "b"), Settings: testSettings(60, 3), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snap := m.Snapshot()
	if snap.State != StateCountdown || snap.CountdownValue != 3 {
		t.Fatalf("expected countdown at 3, got %v/%d", snap.State, snap.CountdownValue)
	}
	if snap.CurrentCard.IsZero() {
		t.Fatalf("expected a card to be drawn at start")
	}

	sched.tick()
	sched.tick()
	if s := m.Snapshot(); s.State != StateCountdown || s.CountdownValue != 1 {
		t.Fatalf("expected countdown at 1, got %v/%d", s.State, s.CountdownValue)
	}
	sched.tick()
	if s := m.Snapshot(); s.State != StateRunning {
		t.Fatalf("expected running after countdown, got %v", s.State)
	}
	if sched.liveRepeating() != 1 {
		t.Fatalf("countdown ticker must be stopped once the round timer runs")
	}
}

func TestZeroCountdownGoesStraightToRunning(t *testing.T) {
	m := New(Config{Deck: testDeck("a"), Settings: testSettings(60, 0), Scheduler: &fakeScheduler{}})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s := m.Snapshot(); s.State != StateRunning {
		t.Fatalf("expected running, got %v", s.State)
	}
}

func TestTapScoresAndDeduplicates(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("only"), Settings: testSettings(60, 0), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	m.Tap(ActionCorrect)
	m.Tap(ActionCorrect)
	m.Tap(ActionWrong)

	snap := m.Snapshot()
	if snap.CorrectCount != 2 || snap.WrongCount != 1 {
		t.Fatalf("unexpected counts: correct=%d wrong=%d", snap.CorrectCount, snap.WrongCount)
	}
	// A single-card deck resurfaces the same card; the word lists stay unique.
	if len(snap.CorrectWords) != 1 || snap.CorrectWords[0] != "only" {
		t.Fatalf("unexpected correct words: %v", snap.CorrectWords)
	}
	if len(snap.SkippedWords) != 1 {
		t.Fatalf("unexpected skipped words: %v", snap.SkippedWords)
	}
}

func TestTapIgnoredOutsideRunning(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("a", "b"), Settings: testSettings(60, 2), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Countdown: taps are no-ops.
	m.Tap(ActionCorrect)
	if s := m.Snapshot(); s.CorrectCount != 0 {
		t.Fatalf("tap during countdown must not score")
	}

	sched.tick()
	sched.tick()
	m.Pause()
	m.Tap(ActionCorrect)
	if s := m.Snapshot(); s.CorrectCount != 0 {
		t.Fatalf("tap while paused must not score")
	}
}

func TestPauseStopsTimerAndResumeCountsDownAgain(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("a"), Settings: testSettings(60, 1), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sched.tick()
	if s := m.Snapshot(); s.State != StateRunning {
		t.Fatalf("expected running, got %v", s.State)
	}
	sched.tick()
	if s := m.Snapshot(); s.TimeRemaining != 59 {
		t.Fatalf("expected 59s remaining, got %d", s.TimeRemaining)
	}

	m.Pause()
	if sched.liveRepeating() != 0 {
		t.Fatalf("pause must stop the round ticker")
	}
	// A stale tick from the stopped ticker must not charge time.
	before := m.Snapshot().TimeRemaining
	sched.tick()
	if got := m.Snapshot().TimeRemaining; got != before {
		t.Fatalf("time advanced while paused: %d -> %d", before, got)
	}

	m.Resume()
	if s := m.Snapshot(); s.State != StateCountdown {
		t.Fatalf("resume must re-enter countdown, got %v", s.State)
	}
	sched.tick()
	if s := m.Snapshot(); s.State != StateRunning || s.TimeRemaining != 59 {
		t.Fatalf("expected running at 59s, got %v/%d", s.State, s.TimeRemaining)
	}
}

func TestTickSoundInFinalWindow(t *testing.T) {
	sched := &fakeScheduler{}
	sounds := &countingSounds{}
	m := New(Config{Deck: testDeck("a"), Settings: testSettings(12, 0), Scheduler: sched, Sounds: sounds})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sched.tick() // 11s left: outside window
	if sounds.ticks != 0 {
		t.Fatalf("no tick sound expected at 11s, got %d", sounds.ticks)
	}
	for i := 0; i < 10; i++ { // 10..1
		sched.tick()
	}
	if sounds.ticks != 10 {
		t.Fatalf("expected 10 tick sounds, got %d", sounds.ticks)
	}
	sched.tick() // 0: round ends
	if m.Snapshot().State != StateEnded {
		t.Fatalf("expected ended state")
	}
	if sounds.finishes != 1 {
		t.Fatalf("expected one finish sound, got %d", sounds.finishes)
	}
}

func TestEndRecordsHistory(t *testing.T) {
	sched := &fakeScheduler{}
	rec := &fakeRecorder{}
	m := New(Config{Deck: testDeck("a", "b", "c"), Settings: testSettings(60, 0), Scheduler: sched, Recorder: rec})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	m.Tap(ActionCorrect)
	m.Tap(ActionCorrect)
	m.Tap(ActionCorrect)
	m.Tap(ActionWrong)
	for i := 0; i < 45; i++ {
		sched.tick()
	}
	m.End()

	if len(rec.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(rec.records))
	}
	saved := rec.records[0]
	if saved.DeckID != "en-test" || saved.Duration != 45 {
		t.Fatalf("unexpected record: %+v", saved)
	}
	if len(saved.CorrectWords) != 3 || len(saved.SkippedWords) != 1 {
		t.Fatalf("unexpected word lists: %v / %v", saved.CorrectWords, saved.SkippedWords)
	}
	if saved.Accuracy != 75 {
		t.Fatalf("expected accuracy 75, got %d", saved.Accuracy)
	}
	if snap := m.Snapshot(); snap.Record == nil || snap.Record.Accuracy != 75 {
		t.Fatalf("snapshot must expose the saved record")
	}

	// End twice is a no-op.
	m.End()
	if len(rec.records) != 1 {
		t.Fatalf("double end must not append twice")
	}
}

func TestRoundTimerExpiryEndsSession(t *testing.T) {
	sched := &fakeScheduler{}
	rec := &fakeRecorder{}
	m := New(Config{Deck: testDeck("a", "b"), Settings: testSettings(1, 0), Scheduler: sched, Recorder: rec})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sched.tick()
	snap := m.Snapshot()
	if snap.State != StateEnded {
		t.Fatalf("expected ended after the timer fired, got %v", snap.State)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected exactly one history record, got %d", len(rec.records))
	}
	if rec.records[0].Duration != 1 {
		t.Fatalf("expected duration 1, got %d", rec.records[0].Duration)
	}
	if sched.liveRepeating() != 0 {
		t.Fatalf("all tickers must be stopped after the round ends")
	}
}

func TestFeedbackPulseClearsAndReplaces(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("a", "b"), Settings: testSettings(60, 0), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	m.Tap(ActionCorrect)
	if fb := m.Snapshot().Feedback; !fb.Visible || fb.Action != ActionCorrect {
		t.Fatalf("expected visible correct feedback, got %+v", fb)
	}

	// A second tap replaces the pending clear timer.
	firstTimer := sched.timers[len(sched.timers)-1]
	m.Tap(ActionWrong)
	if !firstTimer.stopped {
		t.Fatalf("stale feedback timer must be cancelled")
	}
	if fb := m.Snapshot().Feedback; !fb.Visible || fb.Action != ActionWrong {
		t.Fatalf("expected visible wrong feedback, got %+v", fb)
	}

	sched.fireOneShots()
	if fb := m.Snapshot().Feedback; fb.Visible {
		t.Fatalf("feedback must clear after the pulse")
	}
}

func TestInFlightFeedbackClearDoesNotStompNewPulse(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("a", "b"), Settings: testSettings(60, 0), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	m.Tap(ActionCorrect)
	staleClear := sched.timers[len(sched.timers)-1].f

	// The runtime can dispatch a clear callback before Stop lands. Run
	// the first pulse's clear after a second tap replaced it: the newer
	// pulse must survive.
	m.Tap(ActionWrong)
	staleClear()
	if fb := m.Snapshot().Feedback; !fb.Visible || fb.Action != ActionWrong {
		t.Fatalf("stale clear must not wipe the new pulse, got %+v", fb)
	}

	sched.fireOneShots()
	if fb := m.Snapshot().Feedback; fb.Visible {
		t.Fatalf("feedback must clear after the live pulse expires")
	}
}

func TestCleanupStopsEverything(t *testing.T) {
	sched := &fakeScheduler{}
	m := New(Config{Deck: testDeck("a"), Settings: testSettings(60, 3), Scheduler: sched})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	m.Cleanup()
	if sched.liveRepeating() != 0 {
		t.Fatalf("cleanup must stop all repeating timers")
	}
}

// scriptedCaps exposes a real readings channel so the sensor loop runs.
type scriptedCaps struct {
	env.Terminal
	readings chan env.Reading
}

func (c *scriptedCaps) OrientationReadings() (<-chan env.Reading, bool) {
	return c.readings, true
}

func TestTiltReadingsScore(t *testing.T) {
	sched := &fakeScheduler{}
	caps := &scriptedCaps{readings: make(chan env.Reading)}
	notify := make(chan struct{}, 64)
	settings := testSettings(60, 0)
	settings.Tilt = true

	m := New(Config{
		Deck:      testDeck("a", "b"),
		Settings:  settings,
		Scheduler: sched,
		Caps:      caps,
		Notify: func() {
			select {
			case notify <- struct{}{}:
			default:
			}
		},
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !m.Snapshot().TiltActive {
		t.Fatalf("tilt must be active with a supported sensor")
	}

	now := time.Now()
	caps.readings <- env.Reading{Gamma: 0, Orientation: tilt.LandscapePrimary, At: now}
	caps.readings <- env.Reading{Gamma: 40, Orientation: tilt.LandscapePrimary, At: now.Add(time.Second)}

	deadline := time.After(2 * time.Second)
	for m.Snapshot().CorrectCount == 0 {
		select {
		case <-notify:
		case <-deadline:
			t.Fatalf("tilt reading did not score in time")
		}
	}
	m.Cleanup()
}

func TestTiltUnsupportedFallsBackToTaps(t *testing.T) {
	settings := testSettings(60, 0)
	settings.Tilt = true
	m := New(Config{Deck: testDeck("a"), Settings: settings, Scheduler: &fakeScheduler{}, Caps: env.Terminal{}})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if m.Snapshot().TiltActive {
		t.Fatalf("tilt must be inactive without a sensor")
	}
	m.Tap(ActionCorrect)
	if m.Snapshot().CorrectCount != 1 {
		t.Fatalf("manual taps must keep working")
	}
}
