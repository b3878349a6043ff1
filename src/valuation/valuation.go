// Package valuation marks single positions to a price.
package valuation

import (
	"errors"

	"portfoliotracker/src/model"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidEntryPrice = errors.New("entry price must be positive")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNoPrice           = errors.New("no usable current price")
)

var hundred = decimal.NewFromInt(100)

// Value marks p to price. The returned error is one of the skip reasons
// above; such a position must be left out of any valued output.
func Value(p model.Position, price decimal.Decimal) (model.ValuedPosition, error) {
	if !p.EntryPrice.IsPositive() {
		return model.ValuedPosition{}, ErrInvalidEntryPrice
	}
	if !p.Quantity.IsPositive() {
		return model.ValuedPosition{}, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return model.ValuedPosition{}, ErrNoPrice
	}

	side, _ := model.ParseSide(string(p.Side))
	p.Side = side

	investment := p.EntryPrice.Mul(p.Quantity)
	currentValue := price.Mul(p.Quantity)
	pnl := PNL(side, p.EntryPrice, price, p.Quantity)

	return model.ValuedPosition{
		Position:     p,
		CurrentPrice: price,
		Investment:   investment,
		CurrentValue: currentValue,
		PNL:          pnl,
		PNLPercent:   Percent(pnl, investment),
	}, nil
}

// PNL is the signed profit of a position: long gains when price rises,
// short gains when it falls.
func PNL(side model.Side, entry, current, quantity decimal.Decimal) decimal.Decimal {
	if side == model.SideShort {
		return entry.Sub(current).Mul(quantity)
	}
	return current.Sub(entry).Mul(quantity)
}

// Percent is part/whole*100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
