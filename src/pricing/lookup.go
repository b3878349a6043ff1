// Package pricing resolves symbol prices from the feed for one request.
package pricing

import (
	"context"
	"time"

	"portfoliotracker/src/repository"

	"github.com/shopspring/decimal"
)

// Source is the feed query a Lookup is built on.
type Source interface {
	PriceAtOrBefore(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error)
}

type memoKey struct {
	symbol string
	at     int64
}

type memoEntry struct {
	price decimal.Decimal
	found bool
}

// Lookup answers price queries relative to a fixed as-of time. Results,
// including misses, are memoized for the lifetime of the Lookup, so it must
// not outlive the request that created it. Not safe for concurrent use.
type Lookup struct {
	source Source
	asOf   time.Time
	memo   map[memoKey]memoEntry
}

func NewLookup(source Source, asOf time.Time) *Lookup {
	return &Lookup{
		source: source,
		asOf:   asOf,
		memo:   make(map[memoKey]memoEntry),
	}
}

// AsOf is the reference time used by Latest.
func (l *Lookup) AsOf() time.Time {
	return l.asOf
}

// Latest is the newest price at or before the lookup's as-of time.
func (l *Lookup) Latest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return l.AtOrBefore(ctx, symbol, l.asOf)
}

// AtOrBefore is the newest price with timestamp <= at. A symbol without such
// a tick yields repository.ErrPriceNotFound.
func (l *Lookup) AtOrBefore(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error) {
	key := memoKey{symbol: symbol, at: at.UnixNano()}
	if e, ok := l.memo[key]; ok {
		if !e.found {
			return decimal.Zero, repository.ErrPriceNotFound
		}
		return e.price, nil
	}

	price, err := l.source.PriceAtOrBefore(ctx, symbol, at)
	switch {
	case err == nil:
		l.memo[key] = memoEntry{price: price, found: true}
		return price, nil
	case repository.IsPriceNotFound(err):
		l.memo[key] = memoEntry{}
		return decimal.Zero, err
	default:
		return decimal.Zero, err
	}
}
