package views

import (
	"fmt"
	"strings"
)

type SetupPanelData struct {
	ListView      string
	Selected      int
	Classified    string
	CommitEnabled bool
}

type TimerPanelData struct {
	Label        string
	Clock        string
	State        string
	ProgressView string
	ProgressPct  int
}

type TimerSummaryData struct {
	Label   string
	Clock   string
	Running bool
}

type HelpPanelData struct {
	CurrentScreen string
	Bindings      []string
	HelpView      string
	Markdown      string
}

func RenderSetupPanel(data SetupPanelData) string {
	var b strings.Builder
	b.WriteString("setup:\n")
	b.WriteString(data.ListView + "\n")
	b.WriteString(fmt.Sprintf("selected: %d min -> %s\n", data.Selected, data.Classified))
	if data.CommitEnabled {
		b.WriteString("actions: [j/k]choose [enter]commit")
	} else {
		b.WriteString("commit disabled: a timer is running")
	}
	return strings.TrimSpace(b.String())
}

func RenderTimerPanel(data TimerPanelData) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(data.Label) + ":\n")
	b.WriteString(clockStyle.Render(data.Clock) + "\n")
	b.WriteString(fmt.Sprintf("state: %s\n", strings.ToUpper(data.State)))
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	b.WriteString("actions: [p]play [s]pause [space]toggle [r]reset [b]back")
	return strings.TrimSpace(b.String())
}

func RenderTimersSummary(rows []TimerSummaryData) string {
	var b strings.Builder
	b.WriteString("timers:\n")
	for _, row := range rows {
		marker := " "
		if row.Running {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-12s %s\n", marker, row.Label, row.Clock))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	out := fmt.Sprintf("help:\n%s screen:\n%s\n%s",
		strings.ToLower(data.CurrentScreen),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
	if data.Markdown != "" {
		out += "\n\n" + data.Markdown
	}
	return out
}
