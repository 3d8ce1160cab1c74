package update

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/pomo/internal/model"
	"github.com/sandeepkv93/pomo/internal/scheduler"
	"github.com/sandeepkv93/pomo/internal/timer"
)

func (m Model) handleSetupKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "up", "k":
		m.durationList.CursorUp()
	case "down", "j":
		m.durationList.CursorDown()
	case "enter":
		m.commit(m.SelectedMinutes())
	case m.Keys.Focus:
		m.show(model.ModeFocus)
	case m.Keys.ShortBreak:
		m.show(model.ModeShortBreak)
	case m.Keys.LongBreak:
		m.show(model.ModeLongBreak)
	}
	return m
}

func (m Model) handleTimerKey(msg tea.KeyMsg) Model {
	mode := m.Timer.Screen().Mode()
	switch msg.String() {
	case "p":
		m.play(mode)
	case "s":
		m.pause(mode)
	case " ":
		if m.Timer.Active() == mode {
			m.pause(mode)
		} else {
			m.play(mode)
		}
	case "r":
		m.reset(mode)
	case "b", "esc":
		m.Timer.BackToSetup()
		m.Status = StatusBar{Text: "back to setup", IsError: false}
	case m.Keys.Focus:
		m.show(model.ModeFocus)
	case m.Keys.ShortBreak:
		m.show(model.ModeShortBreak)
	case m.Keys.LongBreak:
		m.show(model.ModeLongBreak)
	}
	return m
}

func (m *Model) commit(minutes int) {
	mode, err := m.Timer.Commit(minutes)
	switch {
	case errors.Is(err, timer.ErrCommitDisabled):
		m.Status = StatusBar{Text: "pause the running timer before committing a new duration", IsError: true}
	case err != nil:
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	default:
		m.Status = StatusBar{Text: fmt.Sprintf("%s started: %s", mode.Label(), m.Timer.Display(mode)), IsError: false}
	}
}

func (m *Model) play(mode model.Mode) {
	if err := m.Timer.Play(mode); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s running", mode.Label()), IsError: false}
}

func (m *Model) pause(mode model.Mode) {
	if err := m.Timer.Pause(mode); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s paused at %s", mode.Label(), m.Timer.Display(mode)), IsError: false}
}

func (m *Model) reset(mode model.Mode) {
	if err := m.Timer.Reset(mode); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s reset", mode.Label()), IsError: false}
}

func (m *Model) show(mode model.Mode) {
	if err := m.Timer.Show(mode); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	}
}

func (m Model) onTick(msg TickMsg) Model {
	mode := m.Timer.Active()
	switch m.Timer.Tick(msg.ID) {
	case timer.TickCompleted:
		text := fmt.Sprintf("%s complete", mode.Label())
		m.Status = StatusBar{Text: text, IsError: false}
		m.notify("pomo", text, "info")
	case timer.TickIgnored:
		m.log.WithField("tick_id", msg.ID).Debug("stale tick ignored")
	}
	return m
}

func waitForTickCmd(ch <-chan scheduler.TickEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return TickMsg{ID: ev.ID, Mode: model.Mode(ev.Tag)}
	}
}
