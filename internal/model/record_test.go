package model

import (
	"errors"
	"testing"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		minutes int
		want    Mode
	}{
		{1, ModeShortBreak},
		{19, ModeShortBreak},
		{20, ModeFocus},
		{21, ModeLongBreak},
		{25, ModeLongBreak},
		{60, ModeLongBreak},
	}
	for _, tc := range cases {
		if got := Classify(tc.minutes); got != tc.want {
			t.Fatalf("Classify(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}

func TestValidateMinutesBounds(t *testing.T) {
	for _, n := range []int{1, 25, 60} {
		if err := ValidateMinutes(n); err != nil {
			t.Fatalf("expected %d to be valid, got %v", n, err)
		}
	}
	for _, n := range []int{0, -5, 61} {
		if err := ValidateMinutes(n); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("expected ErrInvalidDuration for %d, got %v", n, err)
		}
	}
}

func TestDefaultRecords(t *testing.T) {
	recs := DefaultRecords()
	want := map[Mode]int{ModeFocus: 1200, ModeShortBreak: 300, ModeLongBreak: 2700}
	for mode, sec := range want {
		rec := recs[mode]
		if rec.ConfiguredSec != sec || rec.TimeLeftSec != sec || rec.Running {
			t.Fatalf("unexpected default record for %s: %+v", mode, rec)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		9:    "00:09",
		61:   "01:01",
		1500: "25:00",
		3600: "60:00",
		-3:   "00:00",
	}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTimerRecordValidate(t *testing.T) {
	rec := NewTimerRecord(300)
	rec.TimeLeftSec = 42
	if err := rec.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	rec.TimeLeftSec = 301
	if err := rec.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := (TimerRecord{}).Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for zero record, got %v", err)
	}
}

func TestTimerRecordProgressAndRewind(t *testing.T) {
	rec := NewTimerRecord(100)
	rec.TimeLeftSec = 25
	if got := rec.Progress(); got != 0.75 {
		t.Fatalf("progress = %v, want 0.75", got)
	}
	rec.Rewind()
	if rec.TimeLeftSec != 100 || rec.Progress() != 0 {
		t.Fatalf("unexpected rewind result: %+v", rec)
	}
}

func TestParseModeAliases(t *testing.T) {
	cases := map[string]Mode{
		"focus":      ModeFocus,
		"F":          ModeFocus,
		"short":      ModeShortBreak,
		"shortBreak": ModeShortBreak,
		"long-break": ModeLongBreak,
		"l":          ModeLongBreak,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("nap"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestScreenModeRoundTrip(t *testing.T) {
	for _, mode := range Modes() {
		if got := ScreenFor(mode).Mode(); got != mode {
			t.Fatalf("screen round trip for %s gave %s", mode, got)
		}
	}
	if ScreenFor(ModeNone) != ScreenSetup || ScreenSetup.Mode() != ModeNone {
		t.Fatal("expected setup screen to map to no mode")
	}
}
