package update

import (
	"strings"
	"time"

	"github.com/sandeepkv93/pomo/internal/model"
	"github.com/sandeepkv93/pomo/internal/timer"
	"github.com/sandeepkv93/pomo/internal/views"
)

func (m Model) renderSetupView() string {
	return views.RenderSetupPanel(views.SetupPanelData{
		ListView:      m.durationList.View(),
		Selected:      m.SelectedMinutes(),
		Classified:    model.Classify(m.SelectedMinutes()).Label(),
		CommitEnabled: m.Timer.CommitEnabled(),
	})
}

func (m Model) renderTimerView() string {
	mode := m.Timer.Screen().Mode()
	rec, _ := m.Timer.Record(mode)
	state := string(timer.PhasePaused)
	if m.Timer.Active() == mode {
		state = string(timer.PhaseRunning)
	}
	progress := rec.Progress()
	return views.RenderTimerPanel(views.TimerPanelData{
		Label:        mode.Label(),
		Clock:        m.Timer.Display(mode),
		State:        state,
		ProgressView: m.timerProgress.ViewAs(progress),
		ProgressPct:  int(progress * 100),
	})
}

func (m Model) renderTimersSummary() string {
	rows := make([]views.TimerSummaryData, 0, 3)
	for _, mode := range model.Modes() {
		rows = append(rows, views.TimerSummaryData{
			Label:   mode.Label(),
			Clock:   m.Timer.Display(mode),
			Running: m.Timer.Active() == mode,
		})
	}
	return views.RenderTimersSummary(rows)
}

func (m Model) renderCommandPalette() string {
	out := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
	if out == "" {
		return ""
	}
	return "\n\n" + out
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		if err := m.notifier.Send(n); err != nil {
			m.log.WithError(err).Warn("desktop notification failed")
		}
	}
}
