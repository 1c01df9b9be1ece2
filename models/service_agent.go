package models

// AnalyzeParams describes one analysis request.
type AnalyzeParams struct {
	Prompt  string `json:"prompt"`
	Save    bool   `json:"save"`
	NoStore bool   `json:"no_store"`
}
