package trading

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bounds on what a single trade may carry. They keep a stock's lot totals and
// every amount inside the storage column widths.
const (
	MaxQuantity int64 = 1_000_000_000_000
	PriceScale  int32 = 8
)

// MaxPrice is the exclusive upper bound on a trade price.
var MaxPrice = decimal.New(1, 12)

func init() {
	// Prices and amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Trade is a single buy (positive quantity) or sell (negative quantity) of a stock.
// Trades are written once and never updated.
type Trade struct {
	ID         uuid.UUID       `json:"id"`
	StockName  string          `json:"stock_name"`
	Quantity   int64           `json:"quantity"`
	BrokerName string          `json:"broker_name"`
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewTrade builds a trade from validated input. Amount is always price * |quantity|.
func NewTrade(in TradeInput, now time.Time) *Trade {
	var price decimal.Decimal
	if in.Price != nil {
		price = *in.Price
	}
	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = in.Timestamp.UTC()
	}
	return &Trade{
		ID:         uuid.New(),
		StockName:  in.StockName,
		Quantity:   in.Quantity,
		BrokerName: in.BrokerName,
		Price:      price,
		Amount:     TradeAmount(price, in.Quantity),
		Timestamp:  ts,
		CreatedAt:  now,
	}
}

func TradeAmount(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(absInt64(quantity)))
}

func (t *Trade) IsBuy() bool  { return t.Quantity > 0 }
func (t *Trade) IsSell() bool { return t.Quantity < 0 }

// AbsQuantity is the number of shares moved regardless of direction.
func (t *Trade) AbsQuantity() int64 {
	return absInt64(t.Quantity)
}

// TradeInput is the caller-supplied part of a trade.
type TradeInput struct {
	StockName  string           `json:"stock_name" validate:"required,max=64"`
	Quantity   int64            `json:"quantity" validate:"required,min=-1000000000000,max=1000000000000"`
	BrokerName string           `json:"broker_name" validate:"required,max=128"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	Timestamp  *time.Time       `json:"timestamp,omitempty"`
}

// absInt64 saturates at MaxInt64 for MinInt64.
func absInt64(v int64) int64 {
	if v == math.MinInt64 {
		return math.MaxInt64
	}
	if v < 0 {
		return -v
	}
	return v
}
