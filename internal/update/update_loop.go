package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/pomo/internal/model"
	"github.com/sandeepkv93/pomo/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.Scheduler != nil {
		return waitForTickCmd(m.Scheduler.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			next := m.handlePaletteKey(typed)
			return next, nil
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Timer.Close()
			m.Quitting = true
			return m, tea.Quit
		}

		if m.Timer.Screen() == model.ScreenSetup {
			return m.handleSetupKey(typed), nil
		}
		return m.handleTimerKey(typed), nil
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.timerProgress.Width = progressWidth(typed.Width)
		return m, nil
	case TickMsg:
		m = m.onTick(typed)
		if m.Scheduler != nil {
			return m, waitForTickCmd(m.Scheduler.C())
		}
		return m, nil
	case ShowScreenMsg:
		if typed.Screen == model.ScreenSetup {
			m.Timer.BackToSetup()
			return m, nil
		}
		if err := m.Timer.Show(typed.Screen.Mode()); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := m.renderSetupView()
	if m.Timer.Screen() != model.ScreenSetup {
		leftPane = m.renderTimerView()
	}
	rightPane := m.renderTimersSummary() + m.renderCommandPalette() + m.renderHelpIfVisible()

	phase, mode := m.Timer.Phase()
	header := fmt.Sprintf("pomo | screen: %s | %s", m.Timer.Screen(), phase)
	if mode != model.ModeNone {
		header += " " + mode.Label()
	}

	return views.RenderApp(views.AppData{
		Header:       header,
		Running:      m.Timer.Active() != model.ModeNone,
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: %s focus | %s short | %s long | / cmd | %s help | %s quit",
			m.Keys.Focus, m.Keys.ShortBreak, m.Keys.LongBreak, m.Keys.Help, m.Keys.Quit),
	})
}

func progressWidth(termWidth int) int {
	w := termWidth/2 - 12
	if w < 10 {
		return 10
	}
	if w > 48 {
		return 48
	}
	return w
}
