package analysis

import (
	"time"

	"portfoliotracker/src/model"
	"portfoliotracker/src/valuation"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Tolerance is the largest accepted gap between the per-position PNL sum
// and the difference method.
var Tolerance = decimal.RequireFromString("0.01")

// DiscrepancyPlaces keeps sub-cent gaps visible in the verification block.
const DiscrepancyPlaces = 4

// Summarize aggregates valued positions. Totals of current value come from
// the reference prices of the batch query, falling back to each position's
// own price, and the difference method is that total minus the investment.
// When it differs from the per-position PNL sum by more than Tolerance the
// difference method is reported.
func Summarize(
	valued []model.ValuedPosition,
	reference map[string]decimal.Decimal,
	totalPositions int,
	asOf time.Time,
) model.Summary {

	var (
		investment, currentValue, itemsSum   decimal.Decimal
		longInv, shortInv, longPNL, shortPNL decimal.Decimal
		longCount, shortCount                int
	)

	percents := make([]float64, 0, len(valued))
	for _, vp := range valued {
		investment = investment.Add(vp.Investment)
		itemsSum = itemsSum.Add(vp.PNL)
		percents = append(percents, vp.PNLPercent.InexactFloat64())

		refPrice, ok := reference[vp.Position.Symbol]
		if !ok || !refPrice.IsPositive() {
			refPrice = vp.CurrentPrice
		}
		currentValue = currentValue.Add(refPrice.Mul(vp.Position.Quantity))

		if vp.Position.Side == model.SideShort {
			shortCount++
			shortInv = shortInv.Add(vp.Investment)
			shortPNL = shortPNL.Add(vp.PNL)
		} else {
			longCount++
			longInv = longInv.Add(vp.Investment)
			longPNL = longPNL.Add(vp.PNL)
		}
	}

	difference := currentValue.Sub(investment)
	discrepancy := itemsSum.Sub(difference).Abs()
	totalPNL := itemsSum
	status := model.VerificationOK
	if discrepancy.GreaterThan(Tolerance) {
		totalPNL = difference
		status = model.VerificationWarning
	}

	s := model.Summary{
		TotalInvestment:   model.Round(investment, model.AmountPlaces),
		TotalCurrentValue: model.Round(currentValue, model.AmountPlaces),
		TotalPNL:          model.Round(totalPNL, model.AmountPlaces),
		TotalPNLPercent:   model.Round(valuation.Percent(totalPNL, investment), model.AmountPlaces),
		LongPositions:     longCount,
		ShortPositions:    shortCount,
		LongTotalPNL:      model.Round(longPNL, model.AmountPlaces),
		ShortTotalPNL:     model.Round(shortPNL, model.AmountPlaces),
		LongPNLPercent:    model.Round(valuation.Percent(longPNL, longInv), model.AmountPlaces),
		ShortPNLPercent:   model.Round(valuation.Percent(shortPNL, shortInv), model.AmountPlaces),
		TotalPositions:    totalPositions,
		ValidPositions:    len(valued),
		Timestamp:         asOf,
		Verification: model.Verification{
			ItemsSum:         model.Round(itemsSum, model.AmountPlaces),
			DifferenceMethod: model.Round(difference, model.AmountPlaces),
			Discrepancy:      model.Round(discrepancy, DiscrepancyPlaces),
			Status:           status,
		},
	}

	if len(valued) > 0 {
		avg := totalPNL.Div(decimal.NewFromInt(int64(len(valued))))
		s.AvgPNLPerPosition = model.Round(avg, model.AmountPlaces)
	}
	if len(percents) > 1 {
		s.PNLPercentStdDev = model.Round(decimal.NewFromFloat(stat.StdDev(percents, nil)), model.AmountPlaces)
	}

	return s
}
