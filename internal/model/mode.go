package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMode = errors.New("model: invalid timer mode")

type Mode string

const (
	ModeNone       Mode = ""
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// Modes lists the timer modes in display order.
func Modes() []Mode {
	return []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}
}

func (m Mode) IsValid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	default:
		return false
	}
}

func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "None"
	}
}

// ParseMode accepts the canonical names plus the short aliases used by the
// command palette.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "focus", "f":
		return ModeFocus, nil
	case "shortbreak", "short-break", "short", "s":
		return ModeShortBreak, nil
	case "longbreak", "long-break", "long", "l":
		return ModeLongBreak, nil
	default:
		return ModeNone, fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

type Screen string

const (
	ScreenSetup      Screen = "setup"
	ScreenFocus      Screen = "focus"
	ScreenShortBreak Screen = "shortBreak"
	ScreenLongBreak  Screen = "longBreak"
)

func (s Screen) IsValid() bool {
	switch s {
	case ScreenSetup, ScreenFocus, ScreenShortBreak, ScreenLongBreak:
		return true
	default:
		return false
	}
}

// Mode returns the timer mode shown on the screen, or ModeNone for setup.
func (s Screen) Mode() Mode {
	switch s {
	case ScreenFocus:
		return ModeFocus
	case ScreenShortBreak:
		return ModeShortBreak
	case ScreenLongBreak:
		return ModeLongBreak
	default:
		return ModeNone
	}
}

func ScreenFor(m Mode) Screen {
	switch m {
	case ModeFocus:
		return ScreenFocus
	case ModeShortBreak:
		return ScreenShortBreak
	case ModeLongBreak:
		return ScreenLongBreak
	default:
		return ScreenSetup
	}
}
