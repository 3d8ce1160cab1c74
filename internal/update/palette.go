package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/pomo/internal/commands"
	"github.com/sandeepkv93/pomo/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + " ")
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Set: func(a commands.SetArgs) (commands.Result, error) {
			mode, err := m.Timer.Commit(a.Minutes)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s started: %s", mode.Label(), m.Timer.Display(mode))}, nil
		},
		Play: func(a commands.ModeArgs) (commands.Result, error) {
			mode, err := m.targetMode(a.Mode)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.Timer.Play(mode); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s running", mode.Label())}, nil
		},
		Pause: func(a commands.ModeArgs) (commands.Result, error) {
			mode, err := m.targetMode(a.Mode)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.Timer.Pause(mode); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s paused at %s", mode.Label(), m.Timer.Display(mode))}, nil
		},
		Reset: func(a commands.ModeArgs) (commands.Result, error) {
			mode, err := m.targetMode(a.Mode)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.Timer.Reset(mode); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s reset", mode.Label())}, nil
		},
		Show: func(a commands.ModeArgs) (commands.Result, error) {
			if err := m.Timer.Show(a.Mode); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("showing %s", a.Mode.Label())}, nil
		},
		Back: func() (commands.Result, error) {
			m.Timer.BackToSetup()
			return commands.Result{Message: "back to setup"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
	}

	m.closePalette()
	return m
}

// targetMode resolves an omitted mode to the timer on screen, then to the
// running timer.
func (m Model) targetMode(mode model.Mode) (model.Mode, error) {
	if mode != model.ModeNone {
		return mode, nil
	}
	if onScreen := m.Timer.Screen().Mode(); onScreen != model.ModeNone {
		return onScreen, nil
	}
	if active := m.Timer.Active(); active != model.ModeNone {
		return active, nil
	}
	return model.ModeNone, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no timer on screen; name a mode"}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}
