package lots

import (
	"context"

	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
	"github.com/vinaysengar-17/stock-trading/internal/domain/interfaces"

	"github.com/google/uuid"
)

// Service exposes read access to lots.
type Service struct {
	repo interfaces.TradingStore
}

func NewService(repo interfaces.TradingStore) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetLot(ctx context.Context, id uuid.UUID) (*trading.Lot, error) {
	return s.repo.GetLot(ctx, id)
}

// ListLots returns lots matching the filter, oldest first for FIFO and newest first for LIFO.
func (s *Service) ListLots(ctx context.Context, filter trading.LotFilter) ([]trading.Lot, error) {
	if filter.Method == "" {
		filter.Method = trading.DefaultMethod
	}
	return s.repo.ListLots(ctx, filter)
}
