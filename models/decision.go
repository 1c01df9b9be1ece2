package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

type Action string

const (
	ActionBuy     Action = "buy"
	ActionSell    Action = "sell"
	ActionHold    Action = "hold"
	ActionUnknown Action = "unknown"
)

func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

var (
	actionWord = regexp.MustCompile(`(?i)\b(buy|sell|hold)\b`)
	// "Decision: SELL", "**Recommendation** - hold", "FINAL TRANSACTION PROPOSAL: **BUY**"
	actionLabel = regexp.MustCompile(`(?i)(?:decision|recommendation|proposal|verdict|action)[\s*_]*[:\-–—][\s*_#]*(buy|sell|hold)\b`)
	// "Hold. While there are reasons to buy..." or "**SELL**" as the opening sentence
	leadingAction = regexp.MustCompile(`(?i)^[\s*_#>]*(buy|sell|hold)[\s*_]*(?:[.!:;,\n]|$)`)
)

// ParseAction derives the recommended action from decision text. A labelled
// action wins, then an action opening the text as its own sentence; otherwise
// the text must mention exactly one distinct action.
func ParseAction(text string) Action {
	if m := actionLabel.FindAllStringSubmatch(text, -1); len(m) > 0 {
		return Action(strings.ToLower(m[len(m)-1][1]))
	}
	if m := leadingAction.FindStringSubmatch(text); m != nil {
		return Action(strings.ToLower(m[1]))
	}

	seen := map[Action]struct{}{}
	for _, w := range actionWord.FindAllString(text, -1) {
		seen[Action(strings.ToLower(w))] = struct{}{}
	}
	if len(seen) != 1 {
		return ActionUnknown
	}
	for a := range seen {
		return a
	}
	return ActionUnknown
}

// DecisionRecord is the immutable result of one workflow run.
type DecisionRecord struct {
	RunID               string            `json:"run_id"`
	Request             string            `json:"request"`
	StockName           string            `json:"stock_name"`
	FundamentalAnalysis string            `json:"fundamental_analysis"`
	TechnicalAnalysis   string            `json:"technical_analysis"`
	Decision            string            `json:"decision"`
	Action              Action            `json:"action"`
	Messages            []*schema.Message `json:"messages"`
	CreatedAt           time.Time         `json:"created_at"`
}

func NewDecisionRecord(state *AnalysisState, at time.Time) *DecisionRecord {
	msgs := make([]*schema.Message, len(state.Messages))
	for i, m := range state.Messages {
		if m == nil {
			continue
		}
		cp := *m
		if len(m.ToolCalls) > 0 {
			cp.ToolCalls = append([]schema.ToolCall(nil), m.ToolCalls...)
		}
		msgs[i] = &cp
	}

	return &DecisionRecord{
		RunID:               state.RunID,
		Request:             state.Request,
		StockName:           state.StockName,
		FundamentalAnalysis: state.FundamentalAnalysis,
		TechnicalAnalysis:   state.TechnicalAnalysis,
		Decision:            state.Decision,
		Action:              state.Action,
		Messages:            msgs,
		CreatedAt:           at,
	}
}
