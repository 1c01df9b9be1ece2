package models

// HistoryParams describes a page of stored runs (newest first).
type HistoryParams struct {
	Limit  int    `json:"limit"`
	Symbol string `json:"symbol"` // substring filter on the resolved stock name
}
