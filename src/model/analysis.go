package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PricePlaces  = 8
	AmountPlaces = 2

	VerificationOK      = "OK"
	VerificationWarning = "WARNING"
)

// ValuedPosition is a position marked to a price. Values are kept at full
// precision; rounding happens only when the position is rendered.
type ValuedPosition struct {
	Position     Position
	CurrentPrice decimal.Decimal
	Investment   decimal.Decimal
	CurrentValue decimal.Decimal
	PNL          decimal.Decimal
	PNLPercent   decimal.Decimal
	InKcex       bool
}

func (v ValuedPosition) IsProfitable() bool {
	return !v.PNL.IsNegative()
}

func (v ValuedPosition) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"symbol":        v.Position.Symbol,
		"position":      string(v.Position.Side),
		"position_side": v.Position.Side.Upper(),
		"is_long":       v.Position.Side == SideLong,
		"entry_price":   Round(v.Position.EntryPrice, PricePlaces),
		"current_price": Round(v.CurrentPrice, PricePlaces),
		"quantity":      Round(v.Position.Quantity, PricePlaces),
		"investment":    Round(v.Investment, AmountPlaces),
		"current_value": Round(v.CurrentValue, AmountPlaces),
		"pnl":           Round(v.PNL, AmountPlaces),
		"pnl_percent":   Round(v.PNLPercent, AmountPlaces),
		"is_profitable": v.IsProfitable(),
		"in_kcex":       v.InKcex,
	}
	if v.Position.ID != "" {
		out["id"] = v.Position.ID
	}
	return json.Marshal(out)
}

// Round converts a decimal to a display float with the given places.
func Round(d decimal.Decimal, places int32) float64 {
	return d.Round(places).InexactFloat64()
}

// Verification exposes both PNL computation paths of a summary.
type Verification struct {
	ItemsSum         float64 `json:"items_sum"`
	DifferenceMethod float64 `json:"difference_method"`
	Discrepancy      float64 `json:"discrepancy"`
	Status           string  `json:"status"`
}

// Summary aggregates a whole portfolio. Totals always cover every valued
// position, even when the returned list is truncated.
type Summary struct {
	TotalInvestment   float64      `json:"total_investment"`
	TotalCurrentValue float64      `json:"total_current_value"`
	TotalPNL          float64      `json:"total_pnl"`
	TotalPNLPercent   float64      `json:"total_pnl_percent"`
	LongPositions     int          `json:"long_positions"`
	ShortPositions    int          `json:"short_positions"`
	LongTotalPNL      float64      `json:"long_total_pnl"`
	ShortTotalPNL     float64      `json:"short_total_pnl"`
	LongPNLPercent    float64      `json:"long_pnl_percent"`
	ShortPNLPercent   float64      `json:"short_pnl_percent"`
	AvgPNLPerPosition float64      `json:"avg_pnl_per_position"`
	PNLPercentStdDev  float64      `json:"pnl_percent_stddev"`
	TotalPositions    int          `json:"total_positions"`
	ValidPositions    int          `json:"valid_positions"`
	SortedCount       int          `json:"sorted_count,omitempty"`
	// Timestamp is the as-of instant of the analysis. It is the only field
	// that differs between two analyses of unchanged data.
	Timestamp         time.Time    `json:"timestamp"`
	Verification      Verification `json:"verification"`
}

// Analysis is the result of valuing a stored portfolio.
type Analysis struct {
	PortfolioName string           `json:"portfolio_name"`
	Positions     []ValuedPosition `json:"portfolio"`
	Summary       Summary          `json:"summary"`
}
