// Package timer owns the countdown state machine: three timer records, the
// single tick source that drives whichever one is running, and the screen
// the user is looking at.
package timer

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/pomo/internal/model"
)

var ErrCommitDisabled = errors.New("timer: commit disabled while a timer is running")

// TickSource delivers one firing per second carrying the id passed to Start,
// until Stop is called with that id. Stop must be synchronous and idempotent.
type TickSource interface {
	Start(id uint64, mode model.Mode) error
	Stop(id uint64)
}

// AudioCue is the sound played while a timer runs. Pause keeps the playback
// position; Stop rewinds to the start.
type AudioCue interface {
	Play() error
	Pause() error
	Stop() error
}

type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
)

type TickResult int

const (
	TickIgnored TickResult = iota
	TickAdvanced
	TickCompleted
)

type Snapshot struct {
	Records map[model.Mode]model.TimerRecord
	Active  model.Mode
	Screen  model.Screen
	TickID  uint64
}

type Controller struct {
	records map[model.Mode]*model.TimerRecord
	active  model.Mode
	screen  model.Screen
	tick    uint64
	lastID  uint64
	ticks   TickSource
	audio   AudioCue
	log     logrus.FieldLogger
}

type Option func(*Controller)

func WithTickSource(ts TickSource) Option {
	return func(c *Controller) {
		if ts != nil {
			c.ticks = ts
		}
	}
}

func WithAudio(cue AudioCue) Option {
	return func(c *Controller) {
		if cue != nil {
			c.audio = cue
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

func New(opts ...Option) *Controller {
	c := &Controller{
		records: make(map[model.Mode]*model.TimerRecord, 3),
		screen:  model.ScreenSetup,
		ticks:   noopTicks{},
		audio:   silence{},
		log:     logrus.StandardLogger(),
	}
	for mode, rec := range model.DefaultRecords() {
		rec := rec
		c.records[mode] = &rec
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit configures the mode that minutes classifies into and starts it.
func (c *Controller) Commit(minutes int) (model.Mode, error) {
	if err := model.ValidateMinutes(minutes); err != nil {
		return model.ModeNone, err
	}
	if !c.CommitEnabled() {
		return model.ModeNone, ErrCommitDisabled
	}
	mode := model.Classify(minutes)
	c.records[mode].Configure(minutes * 60)
	c.screen = model.ScreenFor(mode)
	c.log.WithFields(logrus.Fields{"mode": mode, "minutes": minutes}).Info("duration committed")
	if err := c.Play(mode); err != nil {
		return mode, err
	}
	return mode, nil
}

// Play starts or resumes mode. A different running mode is paused first so
// that only one tick source ever exists.
func (c *Controller) Play(mode model.Mode) error {
	rec, err := c.record(mode)
	if err != nil {
		return err
	}
	if rec.Running {
		return nil
	}
	halted := c.active != model.ModeNone
	if halted {
		c.haltActive()
	}

	c.lastID++
	id := c.lastID
	if err := c.ticks.Start(id, mode); err != nil {
		if halted {
			if perr := c.audio.Pause(); perr != nil {
				c.log.WithError(perr).Warn("audio pause failed")
			}
		}
		return fmt.Errorf("timer: start tick for %s: %w", mode, err)
	}
	c.tick = id
	c.active = mode
	rec.Running = true
	c.log.WithFields(logrus.Fields{"mode": mode, "tick": id, "left": rec.TimeLeftSec}).Debug("timer running")

	if err := c.audio.Play(); err != nil {
		c.log.WithError(err).Warn("audio playback denied; continuing without sound")
	}
	return nil
}

func (c *Controller) Pause(mode model.Mode) error {
	rec, err := c.record(mode)
	if err != nil {
		return err
	}
	if !rec.Running {
		return nil
	}
	c.haltActive()
	if err := c.audio.Pause(); err != nil {
		c.log.WithError(err).Warn("audio pause failed")
	}
	c.log.WithFields(logrus.Fields{"mode": mode, "left": rec.TimeLeftSec}).Debug("timer paused")
	return nil
}

// Reset rewinds mode to its configured duration and returns to setup. Any
// running timer is halted since setup never shows a running countdown.
func (c *Controller) Reset(mode model.Mode) error {
	rec, err := c.record(mode)
	if err != nil {
		return err
	}
	if c.active != model.ModeNone {
		c.haltActive()
	}
	rec.Rewind()
	c.screen = model.ScreenSetup
	c.stopAudio()
	c.log.WithField("mode", mode).Debug("timer reset")
	return nil
}

func (c *Controller) BackToSetup() {
	if c.active != model.ModeNone {
		_ = c.Pause(c.active)
	}
	c.screen = model.ScreenSetup
}

// Show switches to a timer screen without touching the countdown.
func (c *Controller) Show(mode model.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidMode, mode)
	}
	c.screen = model.ScreenFor(mode)
	return nil
}

// Tick applies one firing. Firings for ids other than the live handle are
// stale and ignored.
func (c *Controller) Tick(id uint64) TickResult {
	if id == 0 || id != c.tick || c.active == model.ModeNone {
		return TickIgnored
	}
	mode := c.active
	rec := c.records[mode]
	if rec.TimeLeftSec > 0 {
		rec.TimeLeftSec--
	}
	if rec.TimeLeftSec > 0 {
		return TickAdvanced
	}

	c.haltActive()
	c.stopAudio()
	c.screen = model.ScreenSetup
	c.log.WithField("mode", mode).Info("timer completed")
	return TickCompleted
}

// Close halts any running countdown and silences audio.
func (c *Controller) Close() {
	if c.active != model.ModeNone {
		c.haltActive()
	}
	c.stopAudio()
}

func (c *Controller) CommitEnabled() bool {
	for _, rec := range c.records {
		if rec.Running {
			return false
		}
	}
	return true
}

func (c *Controller) Display(mode model.Mode) string {
	rec, err := c.record(mode)
	if err != nil {
		return model.FormatClock(0)
	}
	return model.FormatClock(rec.TimeLeftSec)
}

func (c *Controller) Record(mode model.Mode) (model.TimerRecord, bool) {
	rec, ok := c.records[mode]
	if !ok {
		return model.TimerRecord{}, false
	}
	return *rec, true
}

func (c *Controller) Active() model.Mode { return c.active }

func (c *Controller) Screen() model.Screen { return c.screen }

// Phase derives the state machine state from the active mode and screen.
func (c *Controller) Phase() (Phase, model.Mode) {
	if c.active != model.ModeNone {
		return PhaseRunning, c.active
	}
	if mode := c.screen.Mode(); mode != model.ModeNone {
		return PhasePaused, mode
	}
	return PhaseSetup, model.ModeNone
}

func (c *Controller) Snapshot() Snapshot {
	out := Snapshot{
		Records: make(map[model.Mode]model.TimerRecord, len(c.records)),
		Active:  c.active,
		Screen:  c.screen,
		TickID:  c.tick,
	}
	for mode, rec := range c.records {
		out.Records[mode] = *rec
	}
	return out
}

// CheckInvariants reports the first violated state invariant, if any.
func (c *Controller) CheckInvariants() error {
	running := 0
	for _, mode := range model.Modes() {
		rec, ok := c.records[mode]
		if !ok {
			return fmt.Errorf("timer: missing record for %s", mode)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("timer: %s: %w", mode, err)
		}
		if rec.Running {
			running++
		}
	}
	if running > 1 {
		return fmt.Errorf("timer: %d records running", running)
	}
	if (c.tick != 0) != (running == 1) {
		return fmt.Errorf("timer: tick handle %d with %d running records", c.tick, running)
	}
	if c.tick != 0 && (c.active == model.ModeNone || !c.records[c.active].Running) {
		return fmt.Errorf("timer: tick handle %d not owned by active mode %q", c.tick, c.active)
	}
	if c.tick == 0 && c.active != model.ModeNone {
		return fmt.Errorf("timer: active mode %s without a tick handle", c.active)
	}
	if !c.screen.IsValid() {
		return fmt.Errorf("timer: invalid screen %q", c.screen)
	}
	return nil
}

func (c *Controller) record(mode model.Mode) (*model.TimerRecord, error) {
	rec, ok := c.records[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidMode, mode)
	}
	return rec, nil
}

// haltActive cancels the tick and marks the active record paused.
func (c *Controller) haltActive() {
	if c.tick != 0 {
		c.ticks.Stop(c.tick)
		c.tick = 0
	}
	if rec, ok := c.records[c.active]; ok {
		rec.Running = false
	}
	c.active = model.ModeNone
}

func (c *Controller) stopAudio() {
	if err := c.audio.Stop(); err != nil {
		c.log.WithError(err).Warn("audio stop failed")
	}
}

type noopTicks struct{}

func (noopTicks) Start(uint64, model.Mode) error { return nil }
func (noopTicks) Stop(uint64)                    {}

type silence struct{}

func (silence) Play() error  { return nil }
func (silence) Pause() error { return nil }
func (silence) Stop() error  { return nil }
