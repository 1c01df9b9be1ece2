package consts

const (
	// top-level graph nodes
	StockName    = "stock_name"
	Analyses     = "continue_to_analyses"
	MakeDecision = "make_decision"

	// tool loops
	FundamentalAnalyst = "fundamental_analyst"
	TechnicalAnalyst   = "technical_analyst"
	StockResolver      = "stock_resolver"
	DecisionMaker      = "decision_maker"
)

const (
	ToolPerplexityAsk      = "perplexity_ask"
	ToolPerplexityResearch = "perplexity_research"
	ToolPerplexityReason   = "perplexity_reason"
)
