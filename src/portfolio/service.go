// Package portfolio implements portfolio maintenance on top of the stores:
// whole-portfolio reads and writes, Main list edits and device copies.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfoliotracker/src/model"
	"portfoliotracker/src/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	CopyKcexOnly   = "kcex_only"
	CopyAllSymbols = "all_symbols"
)

var (
	ErrPortfolioNotFound      = repository.ErrPortfolioNotFound
	ErrMainPortfolioProtected = errors.New("the Main portfolio cannot be deleted")
	ErrSymbolNotInPortfolio   = errors.New("symbol not found in portfolio")
	ErrNothingToCopy          = errors.New("no positions to copy")
	ErrInvalidCopyType        = fmt.Errorf("copy_type must be %s or %s", CopyKcexOnly, CopyAllSymbols)
	ErrInvalidSource          = errors.New("invalid source portfolio")
	ErrInvalidPosition        = errors.New("invalid position")
	ErrSourceEmpty            = errors.New("source portfolio is empty")
)

type Store interface {
	Get(ctx context.Context, userID uint, name string) ([]model.Position, error)
	Upsert(ctx context.Context, userID uint, name string, positions []model.Position) error
	Delete(ctx context.Context, userID uint, name string) error
	List(ctx context.Context, userID uint) ([]model.PortfolioInfo, error)
}

type Membership interface {
	InKcex(ctx context.Context, symbol string) (bool, error)
	KcexSymbols(ctx context.Context) ([]string, error)
}

type SymbolSource interface {
	FeedSymbols(ctx context.Context, quote string) ([]string, error)
}

type Service struct {
	store      Store
	membership Membership
	symbols    SymbolSource
	now        func() time.Time
	newID      func() string
}

func NewService(store Store, membership Membership, symbols SymbolSource) *Service {
	return &Service{
		store:      store,
		membership: membership,
		symbols:    symbols,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Get returns the stored positions with quantities defaulted. A missing
// portfolio is an empty list.
func (s *Service) Get(ctx context.Context, userID uint, name string) ([]model.Position, error) {
	positions, err := s.store.Get(ctx, userID, name)
	if errors.Is(err, ErrPortfolioNotFound) {
		return []model.Position{}, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range positions {
		positions[i].NormalizeQuantity()
	}
	return positions, nil
}

// Replace stores positions as the whole content of the portfolio.
func (s *Service) Replace(ctx context.Context, userID uint, name string, positions []model.Position) error {
	for i := range positions {
		if positions[i].Symbol == "" {
			return fmt.Errorf("%w: element %d has no symbol", ErrInvalidPosition, i)
		}
		side, ok := model.ParseSide(string(positions[i].Side))
		if !ok {
			return fmt.Errorf("%w: element %d has invalid position %q", ErrInvalidPosition, i, positions[i].Side)
		}
		positions[i].Side = side
		positions[i].NormalizeQuantity()
	}
	return s.store.Upsert(ctx, userID, name, positions)
}

func (s *Service) Delete(ctx context.Context, userID uint, name string) error {
	if name == model.MainPortfolioName {
		return ErrMainPortfolioProtected
	}
	return s.store.Delete(ctx, userID, name)
}

func (s *Service) List(ctx context.Context, userID uint) ([]model.PortfolioInfo, error) {
	return s.store.List(ctx, userID)
}

type AddRequest struct {
	Symbol     string
	Side       model.Side
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
}

// AddToMain appends one position to Main, creating it if needed.
func (s *Service) AddToMain(ctx context.Context, userID uint, req AddRequest) (model.Position, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return model.Position{}, fmt.Errorf("%w: symbol is required", ErrInvalidPosition)
	}
	side, ok := model.ParseSide(string(req.Side))
	if !ok {
		return model.Position{}, fmt.Errorf("%w: position must be long or short", ErrInvalidPosition)
	}
	if !req.EntryPrice.IsPositive() {
		return model.Position{}, fmt.Errorf("%w: entry_price must be positive", ErrInvalidPosition)
	}

	positions, err := s.Get(ctx, userID, model.MainPortfolioName)
	if err != nil {
		return model.Position{}, err
	}

	p := model.Position{
		ID:         s.newID(),
		Symbol:     symbol,
		Side:       side,
		EntryPrice: req.EntryPrice,
		Quantity:   req.Quantity,
		AddedAt:    s.now().UTC().Format(time.RFC3339),
	}
	p.NormalizeQuantity()

	positions = append(positions, p)
	if err := s.store.Upsert(ctx, userID, model.MainPortfolioName, positions); err != nil {
		return model.Position{}, err
	}
	return p, nil
}

// RemoveFromMain drops every Main position of symbol.
func (s *Service) RemoveFromMain(ctx context.Context, userID uint, symbol string) (removed, remaining int, err error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	positions, err := s.store.Get(ctx, userID, model.MainPortfolioName)
	if err != nil {
		return 0, 0, err
	}

	kept := positions[:0]
	for _, p := range positions {
		if strings.EqualFold(p.Symbol, symbol) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	if removed == 0 {
		return 0, len(positions), ErrSymbolNotInPortfolio
	}

	if err := s.store.Upsert(ctx, userID, model.MainPortfolioName, kept); err != nil {
		return 0, 0, err
	}
	return removed, len(kept), nil
}

type CopyResult struct {
	SourcePortfolio string `json:"source_portfolio"`
	CopyType        string `json:"copy_type"`
	TotalPositions  int    `json:"total_positions"`
	CopiedPositions int    `json:"copied_positions"`
	KcexCount       int    `json:"kcex_count"`
	NonKcexCount    int    `json:"non_kcex_count"`
	FilteredOut     int    `json:"filtered_out"`
}

// CopyToDevice replaces the device portfolio with the positions of source,
// keeping only KCEX listed symbols for CopyKcexOnly. Provenance fields are
// stamped where the position does not already carry them.
func (s *Service) CopyToDevice(ctx context.Context, userID uint, source, copyType string) (*CopyResult, error) {
	if source == "" || source == model.DevicePortfolioName {
		return nil, ErrInvalidSource
	}
	if copyType != CopyKcexOnly && copyType != CopyAllSymbols {
		return nil, ErrInvalidCopyType
	}

	positions, err := s.store.Get(ctx, userID, source)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, ErrSourceEmpty
	}

	res := &CopyResult{
		SourcePortfolio: source,
		CopyType:        copyType,
		TotalPositions:  len(positions),
	}
	copiedAt := s.now().UTC().Format(time.RFC3339)
	filtered := copyType == CopyKcexOnly

	out := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		in, err := s.membership.InKcex(ctx, p.Symbol)
		if err != nil {
			return nil, err
		}
		switch {
		case in:
			res.KcexCount++
		case filtered:
			res.FilteredOut++
			continue
		default:
			res.NonKcexCount++
		}

		if p.ID == "" {
			p.ID = fmt.Sprintf("device_%s_%s", copyType, s.newID())
		}
		if p.CopiedAt == "" {
			p.CopiedAt = copiedAt
		}
		if p.SourcePortfolio == "" {
			p.SourcePortfolio = source
		}
		if p.CopyType == "" {
			p.CopyType = copyType
		}
		if p.FilteredForKcex == nil {
			f := filtered
			p.FilteredForKcex = &f
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return res, ErrNothingToCopy
	}
	if err := s.store.Upsert(ctx, userID, model.DevicePortfolioName, out); err != nil {
		return nil, err
	}

	res.CopiedPositions = len(out)
	logger.WithFields(logger.Fields{
		"user_id":   userID,
		"source":    source,
		"copy_type": copyType,
		"copied":    res.CopiedPositions,
	}).Info("portfolio copied to device")

	return res, nil
}

// Symbols lists the USDT symbols of the feed with their KCEX listing.
func (s *Service) Symbols(ctx context.Context) ([]model.SymbolStatus, error) {
	symbols, err := s.symbols.FeedSymbols(ctx, "USDT")
	if err != nil {
		return nil, err
	}
	listed, err := s.membership.KcexSymbols(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(listed))
	for _, sym := range listed {
		set[sym] = struct{}{}
	}

	out := make([]model.SymbolStatus, 0, len(symbols))
	for _, sym := range symbols {
		_, in := set[sym]
		out = append(out, model.SymbolStatus{Symbol: sym, InKcex: in})
	}
	return out, nil
}

func (s *Service) KcexCheck(ctx context.Context, symbol string) (model.SymbolStatus, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	in, err := s.membership.InKcex(ctx, symbol)
	if err != nil {
		return model.SymbolStatus{}, err
	}
	return model.SymbolStatus{Symbol: symbol, InKcex: in}, nil
}

func (s *Service) KcexSymbols(ctx context.Context) ([]string, error) {
	return s.membership.KcexSymbols(ctx)
}
