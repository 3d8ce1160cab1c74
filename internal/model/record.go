package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDuration = errors.New("model: invalid duration")
	ErrInvalidRecord   = errors.New("model: invalid timer record")
)

const (
	MinDurationMinutes     = 1
	MaxDurationMinutes     = 60
	DefaultDurationMinutes = 25

	// FocusMinutes is the only committed duration that maps to ModeFocus.
	FocusMinutes = 20
)

// Classify maps a committed duration onto a timer mode. The three presets
// double as category thresholds: below 20 minutes is a short break, exactly
// 20 is focus, anything longer is a long break.
func Classify(minutes int) Mode {
	switch {
	case minutes < FocusMinutes:
		return ModeShortBreak
	case minutes == FocusMinutes:
		return ModeFocus
	default:
		return ModeLongBreak
	}
}

func ValidateMinutes(minutes int) error {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return fmt.Errorf("%w: %d minutes (want %d-%d)", ErrInvalidDuration, minutes, MinDurationMinutes, MaxDurationMinutes)
	}
	return nil
}

type TimerRecord struct {
	ConfiguredSec int
	TimeLeftSec   int
	Running       bool
}

func NewTimerRecord(seconds int) TimerRecord {
	return TimerRecord{ConfiguredSec: seconds, TimeLeftSec: seconds}
}

// DefaultRecords returns the startup records: 20, 5 and 45 minutes.
func DefaultRecords() map[Mode]TimerRecord {
	return map[Mode]TimerRecord{
		ModeFocus:      NewTimerRecord(20 * 60),
		ModeShortBreak: NewTimerRecord(5 * 60),
		ModeLongBreak:  NewTimerRecord(45 * 60),
	}
}

// Configure overwrites both the configured duration and the remaining time.
func (r *TimerRecord) Configure(seconds int) {
	r.ConfiguredSec = seconds
	r.TimeLeftSec = seconds
}

func (r *TimerRecord) Rewind() {
	r.TimeLeftSec = r.ConfiguredSec
}

// Progress is the elapsed fraction of the configured duration, in [0, 1].
func (r TimerRecord) Progress() float64 {
	if r.ConfiguredSec <= 0 {
		return 0
	}
	p := float64(r.ConfiguredSec-r.TimeLeftSec) / float64(r.ConfiguredSec)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (r TimerRecord) Validate() error {
	if r.ConfiguredSec <= 0 {
		return fmt.Errorf("%w: configured duration %d must be positive", ErrInvalidRecord, r.ConfiguredSec)
	}
	if r.TimeLeftSec < 0 || r.TimeLeftSec > r.ConfiguredSec {
		return fmt.Errorf("%w: time left %d outside [0, %d]", ErrInvalidRecord, r.TimeLeftSec, r.ConfiguredSec)
	}
	return nil
}

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(totalSec int) string {
	if totalSec < 0 {
		totalSec = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSec/60, totalSec%60)
}
