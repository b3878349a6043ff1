package model

import "github.com/shopspring/decimal"

// AutoPortfolioRequest configures one momentum portfolio build.
type AutoPortfolioRequest struct {
	UserID           uint
	PortfolioName    string
	Investment       decimal.Decimal
	PositionsPerType int
	MinutesOffset    int
}

// AutoPortfolioResult reports what a build persisted.
type AutoPortfolioResult struct {
	PortfolioName     string           `json:"portfolio_name"`
	TotalPositions    int              `json:"total_positions"`
	LongCount         int              `json:"long_count"`
	ShortCount        int              `json:"short_count"`
	KcexCount         int              `json:"kcex_count"`
	TotalInvestment   float64          `json:"total_investment"`
	TotalCurrentValue float64          `json:"total_current_value"`
	TotalPNL          float64          `json:"total_pnl"`
	TotalPNLPercent   float64          `json:"total_pnl_percent"`
	RecordsProcessed  int64            `json:"records_processed"`
	IsHistorical      bool             `json:"is_historical"`
	TimeOffset        string           `json:"time_offset"`
	MinutesOffset     int              `json:"historical_minutes"`
	Positions         []ValuedPosition `json:"positions"`
}
