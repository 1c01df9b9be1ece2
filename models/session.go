package models

import "time"

type RunRecord struct {
	Id                  string
	Request             string
	StockName           string
	FundamentalAnalysis string
	TechnicalAnalysis   string
	Decision            string
	Action              string
	CreatedAt           time.Time
}
