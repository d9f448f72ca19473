package trading

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LotStatus string

const (
	LotStatusOpen              LotStatus = "OPEN"
	LotStatusPartiallyRealized LotStatus = "PARTIALLY_REALIZED"
	LotStatusFullyRealized     LotStatus = "FULLY_REALIZED"
)

// OpenStatuses are the statuses of lots that still hold unsold quantity.
var OpenStatuses = []LotStatus{LotStatusOpen, LotStatusPartiallyRealized}

func (s LotStatus) String() string {
	return string(s)
}

func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusOpen, LotStatusPartiallyRealized, LotStatusFullyRealized:
		return true
	default:
		return false
	}
}

func ParseLotStatus(s string) (LotStatus, error) {
	st := LotStatus(s)
	if !st.IsValid() {
		return "", &ValidationError{
			Fields: []FieldError{{Field: "status", Message: fmt.Sprintf("unknown lot status %q", s)}},
		}
	}
	return st, nil
}

// StatusFor derives a lot status from its realized and total quantity.
func StatusFor(realized, total int64) LotStatus {
	switch {
	case realized <= 0:
		return LotStatusOpen
	case realized >= total:
		return LotStatusFullyRealized
	default:
		return LotStatusPartiallyRealized
	}
}

// Lot is the inventory created by one buy trade.
type Lot struct {
	ID               uuid.UUID       `json:"id"`
	TradeID          uuid.UUID       `json:"trade_id"`
	StockName        string          `json:"stock_name"`
	LotQuantity      int64           `json:"lot_quantity"`
	RealizedQuantity int64           `json:"realized_quantity"`
	RealizedTradeIDs []uuid.UUID     `json:"realized_trade_ids"`
	Realizations     []Realization   `json:"realizations"`
	Status           LotStatus       `json:"lot_status"`
	Method           Method          `json:"method"`
	Price            decimal.Decimal `json:"price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Realization records one sell consuming part of a lot.
type Realization struct {
	TradeID    uuid.UUID `json:"trade_id"`
	Quantity   int64     `json:"quantity"`
	Method     Method    `json:"method"`
	RealizedAt time.Time `json:"realized_at"`
}

// NewLot opens a lot for a buy trade.
func NewLot(buy *Trade, method Method, now time.Time) *Lot {
	return &Lot{
		ID:               uuid.New(),
		TradeID:          buy.ID,
		StockName:        buy.StockName,
		LotQuantity:      buy.Quantity,
		RealizedTradeIDs: []uuid.UUID{},
		Realizations:     []Realization{},
		Status:           LotStatusOpen,
		Method:           method,
		Price:            buy.Price,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Available is the quantity that can still be realized.
func (l *Lot) Available() int64 {
	return l.LotQuantity - l.RealizedQuantity
}

func (l *Lot) IsOpen() bool {
	return l.Status == LotStatusOpen || l.Status == LotStatusPartiallyRealized
}

// Realize consumes quantity from the lot on behalf of a sell trade.
func (l *Lot) Realize(sellID uuid.UUID, quantity int64, method Method, now time.Time) (Realization, error) {
	if quantity <= 0 {
		return Realization{}, fmt.Errorf("realize lot %s: quantity must be positive, got %d", l.ID, quantity)
	}
	if quantity > l.Available() {
		return Realization{}, fmt.Errorf("realize lot %s: quantity %d exceeds available %d", l.ID, quantity, l.Available())
	}
	r := Realization{
		TradeID:    sellID,
		Quantity:   quantity,
		Method:     method,
		RealizedAt: now,
	}
	l.RealizedQuantity += quantity
	l.RealizedTradeIDs = append(l.RealizedTradeIDs, sellID)
	l.Realizations = append(l.Realizations, r)
	l.Status = StatusFor(l.RealizedQuantity, l.LotQuantity)
	l.UpdatedAt = now
	return r, nil
}

// LotFilter narrows lot listings. Method only selects the sort direction.
type LotFilter struct {
	StockName string
	Status    LotStatus
	Method    Method
}

// RealizationResult is the outcome of matching a sell against open lots.
type RealizationResult struct {
	SoldQuantity      int64 `json:"sold_quantity"`
	RemainingQuantity int64 `json:"remaining_quantity"`
	UpdatedLots       []Lot `json:"updated_lots"`
}

// OpenQuantity sums the unrealized quantity of the given lots, saturating at MaxInt64.
func OpenQuantity(lots []Lot) int64 {
	var total int64
	for i := range lots {
		n := lots[i].Available()
		if n <= 0 {
			continue
		}
		if total > math.MaxInt64-n {
			return math.MaxInt64
		}
		total += n
	}
	return total
}
