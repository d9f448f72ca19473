package interfaces

import (
	"context"

	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"

	"github.com/google/uuid"
)

// TradingStore is the set of persistence operations available inside and outside a stock scope.
type TradingStore interface {
	CreateTrade(ctx context.Context, trade *trading.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*trading.Trade, error)
	ListTrades(ctx context.Context) ([]trading.Trade, error)

	CreateLot(ctx context.Context, lot *trading.Lot) error
	GetLot(ctx context.Context, id uuid.UUID) (*trading.Lot, error)
	ListLots(ctx context.Context, filter trading.LotFilter) ([]trading.Lot, error)
	// OpenLots returns OPEN and PARTIALLY_REALIZED lots of a stock ordered by creation time,
	// oldest first for FIFO and newest first for LIFO.
	OpenLots(ctx context.Context, stock string, method trading.Method) ([]trading.Lot, error)
	// SaveRealization persists the lot's new realized state and the appended realization.
	// It fails with trading.ErrConcurrentModification if the stored realized quantity is no
	// longer previousRealized.
	SaveRealization(ctx context.Context, lot *trading.Lot, realization trading.Realization, previousRealized int64) error
}

// TradingRepository owns the storage handle.
type TradingRepository interface {
	TradingStore
	// WithinStock runs fn in a single transaction with writes for the stock serialized.
	// Every change made through the passed store commits together or not at all.
	WithinStock(ctx context.Context, stock string, fn func(store TradingStore) error) error
	Ping(ctx context.Context) error
	Close()
}
