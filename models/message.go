package models

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"
)

type ToolResp struct {
	ID   string         `json:"id,omitempty"`
	Type string         `json:"type,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// ChatResp is the flattened view of a message used by the transcript log,
// the display layer and persistence.
type ChatResp struct {
	RunID        string     `json:"run_id,omitempty"`
	Agent        string     `json:"agent,omitempty"`
	Role         string     `json:"role,omitempty"`
	Content      string     `json:"content,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	ToolCallID   string     `json:"tool_call_id,omitempty"`
	ToolName     string     `json:"tool_name,omitempty"`
	ToolCalls    []ToolResp `json:"tool_calls,omitempty"`
}

func NewChatResp(runID, agent string, msg *schema.Message) *ChatResp {
	if msg == nil {
		return nil
	}
	resp := &ChatResp{
		RunID:      runID,
		Agent:      agent,
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
	}
	if msg.ResponseMeta != nil {
		resp.FinishReason = msg.ResponseMeta.FinishReason
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		resp.ToolCalls = append(resp.ToolCalls, ToolResp{
			ID:   tc.ID,
			Type: "tool_call",
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return resp
}
