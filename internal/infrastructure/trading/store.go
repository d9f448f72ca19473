package trading

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type store struct {
	db       *gorm.DB
	lockRows bool
}

func (s *store) CreateTrade(ctx context.Context, trade *domain.Trade) error {
	if trade == nil {
		return errors.New("trade is nil")
	}
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	model := tradeToModel(trade)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *store) GetTrade(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	var model TradeModel
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, fmt.Errorf("select trade: %w", err)
	}
	trade := model.toDomain()
	return &trade, nil
}

func (s *store) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	var models []TradeModel
	err := s.db.WithContext(ctx).
		Order("traded_at DESC").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("select trades: %w", err)
	}
	trades := make([]domain.Trade, 0, len(models))
	for _, m := range models {
		trades = append(trades, m.toDomain())
	}
	return trades, nil
}

func (s *store) CreateLot(ctx context.Context, lot *domain.Lot) error {
	if lot == nil {
		return errors.New("lot is nil")
	}
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	model := lotToModel(lot)
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error; err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (s *store) GetLot(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	var model LotModel
	err := s.db.WithContext(ctx).
		Preload("Realizations", orderRealizations).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLotNotFound
		}
		return nil, fmt.Errorf("select lot: %w", err)
	}
	lot := model.toDomain()
	return &lot, nil
}

func (s *store) ListLots(ctx context.Context, filter domain.LotFilter) ([]domain.Lot, error) {
	query := s.db.WithContext(ctx).Preload("Realizations", orderRealizations)
	if filter.StockName != "" {
		query = query.Where("stock_name = ?", filter.StockName)
	}
	if filter.Status != "" {
		query = query.Where("lot_status = ?", string(filter.Status))
	}
	return s.findLots(query, filter.Method)
}

func (s *store) OpenLots(ctx context.Context, stock string, method domain.Method) ([]domain.Lot, error) {
	query := s.db.WithContext(ctx).
		Preload("Realizations", orderRealizations).
		Where("stock_name = ? AND lot_status IN ?", stock, statusStrings(domain.OpenStatuses))
	if s.lockRows {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.findLots(query, method)
}

func (s *store) findLots(query *gorm.DB, method domain.Method) ([]domain.Lot, error) {
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: method.Descending()}).
		Order("id ASC")

	var models []LotModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	lots := make([]domain.Lot, 0, len(models))
	for _, m := range models {
		lots = append(lots, m.toDomain())
	}
	return lots, nil
}

func (s *store) SaveRealization(ctx context.Context, lot *domain.Lot, realization domain.Realization, previousRealized int64) error {
	if lot == nil {
		return errors.New("lot is nil")
	}
	res := s.db.WithContext(ctx).
		Model(&LotModel{}).
		Where("id = ? AND realized_quantity = ?", lot.ID, previousRealized).
		Updates(map[string]any{
			"realized_quantity": lot.RealizedQuantity,
			"lot_status":        string(lot.Status),
			"updated_at":        lot.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update lot %s: %w", lot.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update lot %s: %w", lot.ID, domain.ErrConcurrentModification)
	}

	link := LotRealizationModel{
		LotID:      lot.ID,
		TradeID:    realization.TradeID,
		Quantity:   realization.Quantity,
		Method:     string(realization.Method),
		RealizedAt: realization.RealizedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("insert lot realization: %w", err)
	}
	return nil
}

func orderRealizations(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func statusStrings(statuses []domain.LotStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
