package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type AppData struct {
	Header       string
	Running      bool
	LeftPane     string
	RightPane    string
	StatusLine   string
	Footer       string
	Notification string
}

const (
	paneWidth     = 46
	markdownWidth = 42
	// two bordered panes side by side
	rowWidth = 2 * (paneWidth + 4)
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	runningStyle = headerStyle.Foreground(lipgloss.Color("10"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	clockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).Padding(0, 2)
)

func RenderApp(data AppData) string {
	left := panelStyle.Width(paneWidth).Render(data.LeftPane)
	right := panelStyle.Width(paneWidth).Render(data.RightPane)
	row := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	header := headerStyle.Render(data.Header)
	if data.Running {
		header = runningStyle.Render(data.Header)
	}
	statusLine := clip(data.StatusLine)
	status := statusStyle.Render(statusLine)
	if strings.Contains(strings.ToLower(statusLine), "error") {
		status = errorStyle.Render(statusLine)
	}

	lines := []string{header, row, status}
	if data.Notification != "" {
		lines = append(lines, data.Notification)
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(clip(data.Footer)))
	}
	return strings.Join(lines, "\n")
}

func clip(s string) string {
	if ansi.StringWidth(s) <= rowWidth {
		return s
	}
	return ansi.Truncate(s, rowWidth, "…")
}

// RenderMarkdown renders md for the help pane. On renderer errors the raw
// markdown is returned.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
