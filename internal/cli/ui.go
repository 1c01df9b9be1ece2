package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dyike/StockPilot/internal/display"
	"github.com/dyike/StockPilot/models"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Width(24)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, bannerStyle.Render("🚀 StockPilot · buy / sell / hold research"))
}

func printField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label), value)
}

func secretStatus(v string) string {
	if v == "" {
		return errStyle.Render("❌ not configured")
	}
	return okStyle.Render("✅ configured")
}

func printHistory(w io.Writer, runs []models.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No analyses recorded yet."))
		return
	}
	for _, r := range runs {
		id := r.Id
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s  %s  %-6s %s\n",
			id,
			r.CreatedAt.Format("2006-01-02 15:04"),
			display.ActionBadge(models.Action(r.Action)),
			r.StockName)
	}
}

// eventPrinter returns an engine notifier writing live progress lines to w.
func eventPrinter(w io.Writer) func(topic, payload string) {
	return func(topic, payload string) {
		switch topic {
		case "analysis.event":
			ev, err := decodeEvent(payload)
			if err != nil {
				return
			}
			fmt.Fprintln(w, display.EventLine(ev))
		case "analysis.failed":
			fmt.Fprintln(w, errStyle.Render("❌ analysis failed"))
		}
	}
}

func decodeEvent(payload string) (*models.ChatResp, error) {
	ev := &models.ChatResp{}
	if err := json.Unmarshal([]byte(payload), ev); err != nil {
		return nil, err
	}
	return ev, nil
}
