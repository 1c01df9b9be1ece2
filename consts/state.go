package consts

const (
	Agent_StockResolver      = "Stock Resolver"
	Agent_FundamentalAnalyst = "Fundamental Analyst"
	Agent_TechnicalAnalyst   = "Technical Analyst"
	Agent_DecisionMaker      = "Decision Maker"
)

const (
	DefaultAnalysis  = "Not available"
	DefaultStockName = "Unknown"
)
