package lots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
	"github.com/vinaysengar-17/stock-trading/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var ErrNotASell = errors.New("trade is not a sell")

// Realizer matches sell trades against open lots.
type Realizer struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewRealizer(logger *logrus.Logger, now func() time.Time) *Realizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Realizer{logger: logger, now: now}
}

// Realize consumes |sell.Quantity| shares from the stock's open lots in method order.
// The store is expected to be scoped to one transaction for the stock: if coverage is
// insufficient nothing is written, and a failure part way is undone by the caller's rollback.
// Lots are not filtered by their own method tag; method only decides the walk order.
func (r *Realizer) Realize(ctx context.Context, store interfaces.TradingStore, sell *trading.Trade, method trading.Method) (*trading.RealizationResult, error) {
	if sell == nil || !sell.IsSell() {
		return nil, ErrNotASell
	}
	if sell.StockName == "" {
		return nil, errors.New("sell trade has no stock name")
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("unknown realization method %q", method)
	}

	requested := sell.AbsQuantity()
	if requested <= 0 || requested > trading.MaxQuantity {
		return nil, fmt.Errorf("sell quantity %d out of range", sell.Quantity)
	}
	candidates, err := store.OpenLots(ctx, sell.StockName, method)
	if err != nil {
		return nil, fmt.Errorf("load open lots: %w", err)
	}
	if len(candidates) == 0 {
		return nil, &trading.NoOpenLotsError{Stock: sell.StockName}
	}
	available := trading.OpenQuantity(candidates)
	if available < requested {
		return nil, &trading.InsufficientInventoryError{
			Stock:     sell.StockName,
			Requested: requested,
			Available: available,
		}
	}

	now := r.now()
	remaining := requested
	updated := make([]trading.Lot, 0, len(candidates))
	for i := range candidates {
		if remaining == 0 {
			break
		}
		lot := &candidates[i]
		take := min(remaining, lot.Available())
		if take <= 0 {
			continue
		}
		previous := lot.RealizedQuantity
		realization, err := lot.Realize(sell.ID, take, method, now)
		if err != nil {
			return nil, err
		}
		if err := store.SaveRealization(ctx, lot, realization, previous); err != nil {
			return nil, fmt.Errorf("save realization: %w", err)
		}
		updated = append(updated, *lot)
		remaining -= take
	}

	after, err := store.OpenLots(ctx, sell.StockName, method)
	if err != nil {
		return nil, fmt.Errorf("reload open lots: %w", err)
	}
	result := &trading.RealizationResult{
		SoldQuantity:      requested,
		RemainingQuantity: trading.OpenQuantity(after),
		UpdatedLots:       updated,
	}

	r.logger.WithFields(logrus.Fields{
		"stock":     sell.StockName,
		"trade_id":  sell.ID.String(),
		"method":    method.String(),
		"sold":      result.SoldQuantity,
		"remaining": result.RemainingQuantity,
		"lots":      len(updated),
	}).Info("sell realized against lots")
	return result, nil
}
