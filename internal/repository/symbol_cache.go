package repository

import (
	"context"
	"errors"
	"time"

	"TradeDesk/pkg/cache"
)

var symbolsKey = cache.Key("symbols", "catalogue")

// CachedSymbols implements SymbolCache over pkg/cache.
type CachedSymbols struct {
	c cache.Service
}

func NewCachedSymbols(c cache.Service) *CachedSymbols {
	return &CachedSymbols{c: c}
}

func (s *CachedSymbols) GetSymbols(ctx context.Context) ([]string, bool, error) {
	var symbols []string
	if err := s.c.Get(ctx, symbolsKey, &symbols); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return symbols, true, nil
}

func (s *CachedSymbols) SetSymbols(ctx context.Context, symbols []string, ttl time.Duration) error {
	return s.c.Set(ctx, symbolsKey, symbols, ttl)
}
