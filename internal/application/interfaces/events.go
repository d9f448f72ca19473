package interfaces

import (
	"context"
	"time"

	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
)

const EventTradeRecorded = "trade.recorded"

// TradeRecordedEvent is emitted after a trade and its lot changes have been committed.
type TradeRecordedEvent struct {
	Type        string                     `json:"type"`
	Method      trading.Method             `json:"method"`
	Trade       trading.Trade              `json:"trade"`
	Lot         *trading.Lot               `json:"lot,omitempty"`
	Realization *trading.RealizationResult `json:"realization,omitempty"`
	OccurredAt  time.Time                  `json:"occurred_at"`
}

type TradeEventPublisher interface {
	PublishTradeRecorded(ctx context.Context, event TradeRecordedEvent) error
}
