package models

import (
	"github.com/cloudwego/eino/schema"
)

// Conversation is the state owned by one tool loop instance.
type Conversation struct {
	StockName string            `json:"stock_name,omitempty"`
	Messages  []*schema.Message `json:"messages"`

	output    string
	outputSet bool
}

func NewConversation(stockName string, seed ...*schema.Message) *Conversation {
	msgs := make([]*schema.Message, 0, len(seed)+4)
	msgs = append(msgs, seed...)
	return &Conversation{
		StockName: stockName,
		Messages:  msgs,
	}
}

func (c *Conversation) Append(msgs ...*schema.Message) {
	c.Messages = append(c.Messages, msgs...)
}

// SetOutput records the loop result. It may be called once.
func (c *Conversation) SetOutput(out string) error {
	if c.outputSet {
		return ErrOutputAlreadySet
	}
	c.output = out
	c.outputSet = true
	return nil
}

func (c *Conversation) Output() (string, bool) {
	return c.output, c.outputSet
}

// AnalysisState flows through the top-level graph.
type AnalysisState struct {
	RunID    string            `json:"run_id"`
	Request  string            `json:"request"`
	Messages []*schema.Message `json:"messages"`

	StockName           string `json:"stock_name"`
	FundamentalAnalysis string `json:"fundamental_analysis"`
	TechnicalAnalysis   string `json:"technical_analysis"`

	Decision         string `json:"decision"`
	Action           Action `json:"action"`
	DecisionAttempts int    `json:"decision_attempts"`
	// DecisionFeedback holds the correction appended to the next decision prompt.
	DecisionFeedback string `json:"decision_feedback,omitempty"`
	DecisionDone     bool   `json:"decision_done"`
}

func NewAnalysisState(runID string, seed []*schema.Message) *AnalysisState {
	msgs := make([]*schema.Message, len(seed))
	copy(msgs, seed)

	request := ""
	for _, m := range seed {
		if m != nil && m.Role == schema.User {
			request = m.Content
			break
		}
	}

	return &AnalysisState{
		RunID:    runID,
		Request:  request,
		Messages: msgs,
		Action:   ActionUnknown,
	}
}
