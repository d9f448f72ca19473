package trading

import (
	"time"

	domain "github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TradeModel struct {
	ID         uuid.UUID       `gorm:"primaryKey;column:id;type:varchar(36)"`
	StockName  string          `gorm:"column:stock_name;type:varchar(64);not null;index"`
	Quantity   int64           `gorm:"column:quantity;not null"`
	BrokerName string          `gorm:"column:broker_name;type:varchar(128);not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(20,8);not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(38,8);not null"`
	Timestamp  time.Time       `gorm:"column:traded_at;not null;index"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (TradeModel) TableName() string {
	return "trades"
}

type LotModel struct {
	ID               uuid.UUID             `gorm:"primaryKey;column:id;type:varchar(36)"`
	TradeID          uuid.UUID             `gorm:"column:trade_id;type:varchar(36);not null;uniqueIndex"`
	StockName        string                `gorm:"column:stock_name;type:varchar(64);not null;index:idx_lots_open,priority:1"`
	LotQuantity      int64                 `gorm:"column:lot_quantity;not null"`
	RealizedQuantity int64                 `gorm:"column:realized_quantity;not null;default:0"`
	LotStatus        string                `gorm:"column:lot_status;type:varchar(32);not null;index:idx_lots_open,priority:2"`
	Method           string                `gorm:"column:method;type:varchar(8);not null"`
	Price            decimal.Decimal       `gorm:"column:price;type:numeric(20,8);not null"`
	CreatedAt        time.Time             `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_lots_open,priority:3"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	Realizations     []LotRealizationModel `gorm:"foreignKey:LotID;references:ID"`
}

func (LotModel) TableName() string {
	return "lots"
}

// LotRealizationModel links a lot to a sell trade that consumed part of it.
// The autoincrement id keeps realization order.
type LotRealizationModel struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement;column:id"`
	LotID      uuid.UUID `gorm:"column:lot_id;type:varchar(36);not null;index"`
	TradeID    uuid.UUID `gorm:"column:trade_id;type:varchar(36);not null;index"`
	Quantity   int64     `gorm:"column:quantity;not null"`
	Method     string    `gorm:"column:method;type:varchar(8);not null"`
	RealizedAt time.Time `gorm:"column:realized_at;not null"`
}

func (LotRealizationModel) TableName() string {
	return "lot_realizations"
}

func tradeToModel(t *domain.Trade) TradeModel {
	return TradeModel{
		ID:         t.ID,
		StockName:  t.StockName,
		Quantity:   t.Quantity,
		BrokerName: t.BrokerName,
		Price:      t.Price,
		Amount:     t.Amount,
		Timestamp:  t.Timestamp.UTC(),
		CreatedAt:  t.CreatedAt.UTC(),
	}
}

func (m TradeModel) toDomain() domain.Trade {
	return domain.Trade{
		ID:         m.ID,
		StockName:  m.StockName,
		Quantity:   m.Quantity,
		BrokerName: m.BrokerName,
		Price:      m.Price,
		Amount:     m.Amount,
		Timestamp:  m.Timestamp.UTC(),
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

func lotToModel(l *domain.Lot) LotModel {
	return LotModel{
		ID:               l.ID,
		TradeID:          l.TradeID,
		StockName:        l.StockName,
		LotQuantity:      l.LotQuantity,
		RealizedQuantity: l.RealizedQuantity,
		LotStatus:        string(l.Status),
		Method:           string(l.Method),
		Price:            l.Price,
		CreatedAt:        l.CreatedAt.UTC(),
		UpdatedAt:        l.UpdatedAt.UTC(),
	}
}

func (m LotModel) toDomain() domain.Lot {
	lot := domain.Lot{
		ID:               m.ID,
		TradeID:          m.TradeID,
		StockName:        m.StockName,
		LotQuantity:      m.LotQuantity,
		RealizedQuantity: m.RealizedQuantity,
		RealizedTradeIDs: make([]uuid.UUID, 0, len(m.Realizations)),
		Realizations:     make([]domain.Realization, 0, len(m.Realizations)),
		Status:           domain.LotStatus(m.LotStatus),
		Method:           domain.Method(m.Method),
		Price:            m.Price,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
	for _, r := range m.Realizations {
		lot.RealizedTradeIDs = append(lot.RealizedTradeIDs, r.TradeID)
		lot.Realizations = append(lot.Realizations, domain.Realization{
			TradeID:    r.TradeID,
			Quantity:   r.Quantity,
			Method:     domain.Method(r.Method),
			RealizedAt: r.RealizedAt.UTC(),
		})
	}
	return lot
}
