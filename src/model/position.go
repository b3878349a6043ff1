package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// Side is the direction of a paper position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

var ErrMalformedPosition = errors.New("malformed position")

// ParseSide normalizes a raw side value. Blank or unknown values are coerced
// to SideLong; ok reports whether the raw value was a valid side.
func ParseSide(raw string) (side Side, ok bool) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideLong:
		return SideLong, true
	case SideShort:
		return SideShort, true
	default:
		return SideLong, false
	}
}

// Upper returns the side as LONG/SHORT for device consumers.
func (s Side) Upper() string {
	return strings.ToUpper(string(s))
}

// Position is one element of a stored portfolio blob.
// Fields the service does not interpret are kept in Extra and written back
// unchanged.
type Position struct {
	ID         string          `json:"id,omitempty"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"position"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	AddedAt    string          `json:"added_at,omitempty"`

	// provenance
	SourcePortfolio string `json:"source_portfolio,omitempty"`
	CopyType        string `json:"copy_type,omitempty"`
	CopiedAt        string `json:"copied_at,omitempty"`
	FilteredForKcex *bool  `json:"filtered_for_kcex,omitempty"`
	TimeOffset      string `json:"time_offset,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var positionKeys = map[string]struct{}{
	"id": {}, "symbol": {}, "position": {}, "entry_price": {}, "quantity": {}, "added_at": {},
	"source_portfolio": {}, "copy_type": {}, "copied_at": {}, "filtered_for_kcex": {}, "time_offset": {},
}

// positionAlias has the same fields as Position without its methods.
type positionAlias Position

type positionWire struct {
	positionAlias
	Side       *string          `json:"position"`
	EntryPrice *decimal.Decimal `json:"entry_price"`
	Quantity   *decimal.Decimal `json:"quantity"`
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var w positionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}

	*p = Position(w.positionAlias)
	p.Symbol = strings.TrimSpace(p.Symbol)
	if w.Side != nil {
		p.Side = Side(*w.Side)
	}
	if w.EntryPrice != nil {
		p.EntryPrice = *w.EntryPrice
	}
	// absent quantity means one unit; explicit non-positive values are kept
	// so valuation can skip them
	p.Quantity = decimal.NewFromInt(1)
	if w.Quantity != nil {
		p.Quantity = *w.Quantity
	}

	for k, v := range raw {
		if _, known := positionKeys[k]; known {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	return nil
}

func (p Position) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Extra)+len(positionKeys))
	for k, v := range p.Extra {
		out[k] = v
	}

	if p.ID != "" {
		out["id"] = p.ID
	}
	out["symbol"] = p.Symbol
	out["position"] = string(p.Side)
	out["entry_price"] = json.Number(p.EntryPrice.String())
	out["quantity"] = json.Number(p.Quantity.String())
	if p.AddedAt != "" {
		out["added_at"] = p.AddedAt
	}
	if p.SourcePortfolio != "" {
		out["source_portfolio"] = p.SourcePortfolio
	}
	if p.CopyType != "" {
		out["copy_type"] = p.CopyType
	}
	if p.CopiedAt != "" {
		out["copied_at"] = p.CopiedAt
	}
	if p.FilteredForKcex != nil {
		out["filtered_for_kcex"] = *p.FilteredForKcex
	}
	if p.TimeOffset != "" {
		out["time_offset"] = p.TimeOffset
	}

	return json.Marshal(out)
}

// SetExtra stores an uninterpreted attribute on the position.
func (p *Position) SetExtra(key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if p.Extra == nil {
		p.Extra = make(map[string]json.RawMessage)
	}
	p.Extra[key] = b
	return nil
}

// Investment is entry price times quantity.
func (p Position) Investment() decimal.Decimal {
	return p.EntryPrice.Mul(p.Quantity)
}

// NormalizeQuantity applies the one unit default used when a portfolio is written.
func (p *Position) NormalizeQuantity() {
	if p.Quantity.LessThanOrEqual(decimal.Zero) {
		p.Quantity = decimal.NewFromInt(1)
	}
}

// DecodePositions parses a stored portfolio blob. Elements that are not
// objects, cannot be decoded or have no symbol are dropped with a warning;
// invalid sides are coerced to long with a warning.
func DecodePositions(blob []byte) []Position {
	log := logger.WithField("component", "DecodePositions")

	if len(blob) == 0 {
		return []Position{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(blob, &elements); err != nil {
		log.WithError(err).Warn("portfolio data is not a JSON array, treating as empty")
		return []Position{}
	}

	positions := make([]Position, 0, len(elements))
	for i, el := range elements {
		var p Position
		if err := json.Unmarshal(el, &p); err != nil {
			log.WithError(err).WithField("index", i).Warn("skipping malformed portfolio element")
			continue
		}
		if p.Symbol == "" {
			log.WithField("index", i).Warn("skipping portfolio element without symbol")
			continue
		}

		side, ok := ParseSide(string(p.Side))
		if !ok {
			log.WithFields(logger.Fields{
				"symbol": p.Symbol,
				"raw":    string(p.Side),
			}).Warn("invalid or missing position side, defaulting to long")
		}
		p.Side = side

		positions = append(positions, p)
	}

	return positions
}

// EncodePositions serializes positions into the stored blob format.
func EncodePositions(positions []Position) (string, error) {
	if positions == nil {
		positions = []Position{}
	}
	b, err := json.Marshal(positions)
	if err != nil {
		return "", fmt.Errorf("encode positions: %w", err)
	}
	return string(b), nil
}
