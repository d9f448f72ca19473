package trades

import (
	"context"
	"encoding/json"
	"time"

	appinterfaces "github.com/vinaysengar-17/stock-trading/internal/application/interfaces"
	"github.com/vinaysengar-17/stock-trading/internal/application/service/lots"
	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
	"github.com/vinaysengar-17/stock-trading/internal/domain/interfaces"
	"github.com/vinaysengar-17/stock-trading/internal/domain/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service records trades and keeps lots in step with them.
type Service struct {
	repo      interfaces.TradingRepository
	realizer  *lots.Realizer
	publisher appinterfaces.TradeEventPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithPublisher emits a trade.recorded event after every committed trade.
func WithPublisher(p appinterfaces.TradeEventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo interfaces.TradingRepository, logger *logrus.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.realizer = lots.NewRealizer(logger, s.now)
	return s
}

// TradeResult is what recording a single trade produced. Lot is set for buys,
// Realization for sells.
type TradeResult struct {
	Trade       *trading.Trade             `json:"trade"`
	Lot         *trading.Lot               `json:"lot,omitempty"`
	Realization *trading.RealizationResult `json:"realization,omitempty"`
}

// RecordTrade persists the trade and either opens a lot (buy) or realizes open lots (sell).
// Everything happens in one transaction for the stock; a rejected sell leaves no trace.
func (s *Service) RecordTrade(ctx context.Context, in trading.TradeInput, method trading.Method) (*TradeResult, error) {
	if !method.IsValid() {
		parsed, err := trading.ParseMethod(string(method))
		if err != nil {
			return nil, err
		}
		method = parsed
	}
	if err := validation.TradeInput(&in); err != nil {
		return nil, err
	}

	now := s.now()
	trade := trading.NewTrade(in, now)
	result := &TradeResult{Trade: trade}

	err := s.repo.WithinStock(ctx, trade.StockName, func(store interfaces.TradingStore) error {
		if err := store.CreateTrade(ctx, trade); err != nil {
			return err
		}
		if trade.IsBuy() {
			lot := trading.NewLot(trade, method, now)
			if err := store.CreateLot(ctx, lot); err != nil {
				return err
			}
			result.Lot = lot
			return nil
		}
		realization, err := s.realizer.Realize(ctx, store, trade, method)
		if err != nil {
			return err
		}
		result.Realization = realization
		return nil
	})

	log := s.logger.WithFields(logrus.Fields{
		"stock":    trade.StockName,
		"quantity": trade.Quantity,
		"method":   method.String(),
	})
	if err != nil {
		if trading.IsDomainRejection(err) {
			log.WithError(err).Warn("trade rejected")
		} else {
			log.WithError(err).Error("record trade failed")
		}
		return nil, err
	}
	log.WithField("trade_id", trade.ID.String()).Info("trade recorded")

	s.publish(ctx, method, result)
	return result, nil
}

// BulkResult is the outcome of one item of a bulk submission.
type BulkResult struct {
	Success     bool                       `json:"success"`
	Trade       *trading.Trade             `json:"trade,omitempty"`
	Realization *trading.RealizationResult `json:"realization,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// RecordTrades processes items one after another with the same method. A failing item
// is reported in its slot and never stops the rest; the result has one entry per item.
func (s *Service) RecordTrades(ctx context.Context, items []json.RawMessage, method trading.Method) []BulkResult {
	results := make([]BulkResult, 0, len(items))
	for i, raw := range items {
		res, err := s.recordRaw(ctx, raw, method)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"index": i}).WithError(err).Debug("bulk item failed")
			results = append(results, BulkResult{Success: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{Success: true, Trade: res.Trade, Realization: res.Realization})
	}
	return results
}

func (s *Service) recordRaw(ctx context.Context, raw json.RawMessage, method trading.Method) (*TradeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := validation.DecodeTradeInput(raw)
	if err != nil {
		return nil, err
	}
	return s.RecordTrade(ctx, in, method)
}

func (s *Service) GetTrade(ctx context.Context, id uuid.UUID) (*trading.Trade, error) {
	return s.repo.GetTrade(ctx, id)
}

// ListTrades returns every trade, newest first.
func (s *Service) ListTrades(ctx context.Context) ([]trading.Trade, error) {
	return s.repo.ListTrades(ctx)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) publish(ctx context.Context, method trading.Method, result *TradeResult) {
	if s.publisher == nil {
		return
	}
	event := appinterfaces.TradeRecordedEvent{
		Type:        appinterfaces.EventTradeRecorded,
		Method:      method,
		Trade:       *result.Trade,
		Lot:         result.Lot,
		Realization: result.Realization,
		OccurredAt:  s.now(),
	}
	if err := s.publisher.PublishTradeRecorded(ctx, event); err != nil {
		s.logger.WithError(err).WithField("trade_id", result.Trade.ID.String()).Warn("publish trade event failed")
	}
}
