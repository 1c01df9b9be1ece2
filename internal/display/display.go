package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/models"
)

const wrapWidth = 78

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 1).
			Width(wrapWidth + 4)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	agentLabels = map[string]string{
		consts.StockResolver:      consts.Agent_StockResolver,
		consts.FundamentalAnalyst: consts.Agent_FundamentalAnalyst,
		consts.TechnicalAnalyst:   consts.Agent_TechnicalAnalyst,
		consts.DecisionMaker:      consts.Agent_DecisionMaker,
	}

	actionStyles = map[models.Action]lipgloss.Style{
		models.ActionBuy:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		models.ActionSell:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		models.ActionHold:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		models.ActionUnknown: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B7280")),
	}
)

// RenderRecord prints a decision record for the terminal.
func RenderRecord(w io.Writer, rec *models.DecisionRecord, withTranscript bool) {
	fmt.Fprintln(w, titleStyle.Render("📊 "+orDefault(rec.StockName, consts.DefaultStockName)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("run %s · %s", rec.RunID, rec.CreatedAt.Format("2006-01-02 15:04:05"))))
	fmt.Fprintln(w)

	section(w, "🏛️  Fundamental analysis", rec.FundamentalAnalysis)
	section(w, "📈 Technical analysis", rec.TechnicalAnalysis)

	fmt.Fprintln(w, sectionStyle.Render("🎯 Decision ")+ActionBadge(rec.Action))
	fmt.Fprintln(w, panelStyle.Render(orDefault(rec.Decision, consts.DefaultAnalysis)))

	if withTranscript {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("💬 Transcript (%d messages)", len(rec.Messages))))
		for i, m := range rec.Messages {
			fmt.Fprintf(w, "%3d  %s\n", i+1, TranscriptLine(m))
		}
	}
}

func section(w io.Writer, title, body string) {
	fmt.Fprintln(w, sectionStyle.Render(title))
	fmt.Fprintln(w, panelStyle.Render(orDefault(body, consts.DefaultAnalysis)))
	fmt.Fprintln(w)
}

// ActionBadge renders the normalised action in its colour.
func ActionBadge(a models.Action) string {
	style, ok := actionStyles[a]
	if !ok {
		style = actionStyles[models.ActionUnknown]
	}
	return style.Render(strings.ToUpper(string(a)))
}

// TranscriptLine is a one-line summary of a history message.
func TranscriptLine(m *schema.Message) string {
	if m == nil {
		return ""
	}
	switch {
	case len(m.ToolCalls) > 0:
		names := make([]string, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			names = append(names, tc.Function.Name)
		}
		return fmt.Sprintf("%-9s → %s", m.Role, strings.Join(names, ", "))
	case m.Role == schema.Tool:
		return fmt.Sprintf("%-9s ← %s: %s", m.Role, m.ToolName, truncate(m.Content, 60))
	default:
		return fmt.Sprintf("%-9s %s", m.Role, truncate(m.Content, 70))
	}
}

// EventLine renders a live transcript event.
func EventLine(ev *models.ChatResp) string {
	if ev == nil {
		return ""
	}
	agent := ev.Agent
	if label, ok := agentLabels[agent]; ok {
		agent = label
	}
	if agent == "" {
		agent = ev.Role
	}
	switch {
	case len(ev.ToolCalls) > 0:
		names := make([]string, 0, len(ev.ToolCalls))
		for _, tc := range ev.ToolCalls {
			names = append(names, tc.Name)
		}
		return fmt.Sprintf("🔧 %s → %s", agent, strings.Join(names, ", "))
	case ev.Role == string(schema.Tool):
		return mutedStyle.Render(fmt.Sprintf("   %s ← %s (%d chars)", agent, ev.ToolName, len(ev.Content)))
	default:
		return fmt.Sprintf("🧠 %s: %s", agent, truncate(ev.Content, 70))
	}
}

// RenderMarkdown formats a record as a standalone markdown report.
func RenderMarkdown(rec *models.DecisionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orDefault(rec.StockName, consts.DefaultStockName))
	fmt.Fprintf(&b, "- Run: `%s`\n", rec.RunID)
	fmt.Fprintf(&b, "- Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Request: %s\n", rec.Request)
	fmt.Fprintf(&b, "- Action: **%s**\n\n", strings.ToUpper(string(rec.Action)))

	fmt.Fprintf(&b, "## Fundamental analysis\n\n%s\n\n", orDefault(rec.FundamentalAnalysis, consts.DefaultAnalysis))
	fmt.Fprintf(&b, "## Technical analysis\n\n%s\n\n", orDefault(rec.TechnicalAnalysis, consts.DefaultAnalysis))
	fmt.Fprintf(&b, "## Decision\n\n%s\n", orDefault(rec.Decision, consts.DefaultAnalysis))
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
