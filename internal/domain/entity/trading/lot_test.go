package trading

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func buyTrade(qty int64, price string) *Trade {
	p := decimal.RequireFromString(price)
	return NewTrade(TradeInput{StockName: "AAPL", Quantity: qty, BrokerName: "zerodha", Price: &p}, time.Unix(1, 0).UTC())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		realized, total int64
		want            LotStatus
	}{
		{0, 100, LotStatusOpen},
		{1, 100, LotStatusPartiallyRealized},
		{99, 100, LotStatusPartiallyRealized},
		{100, 100, LotStatusFullyRealized},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.realized, tt.total))
	}
}

func TestLot_Realize(t *testing.T) {
	now := time.Unix(10, 0).UTC()
	lot := NewLot(buyTrade(100, "10"), MethodFIFO, now)
	assert.Equal(t, LotStatusOpen, lot.Status)
	assert.Equal(t, int64(100), lot.Available())

	sellA, sellB := uuid.New(), uuid.New()

	r, err := lot.Realize(sellA, 40, MethodFIFO, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(40), r.Quantity)
	assert.Equal(t, LotStatusPartiallyRealized, lot.Status)
	assert.Equal(t, int64(60), lot.Available())

	_, err = lot.Realize(sellB, 60, MethodLIFO, now)
	assert.NoError(t, err)
	assert.Equal(t, LotStatusFullyRealized, lot.Status)
	assert.False(t, lot.IsOpen())
	assert.Equal(t, []uuid.UUID{sellA, sellB}, lot.RealizedTradeIDs)
	assert.Equal(t, 2, len(lot.Realizations))
	assert.Equal(t, MethodLIFO, lot.Realizations[1].Method)
}

func TestLot_RealizeRejectsOverdraw(t *testing.T) {
	lot := NewLot(buyTrade(10, "1"), MethodFIFO, time.Now())

	_, err := lot.Realize(uuid.New(), 11, MethodFIFO, time.Now())
	assert.Error(t, err)
	_, err = lot.Realize(uuid.New(), 0, MethodFIFO, time.Now())
	assert.Error(t, err)

	assert.Equal(t, int64(0), lot.RealizedQuantity)
	assert.Equal(t, LotStatusOpen, lot.Status)
	assert.Equal(t, 0, len(lot.RealizedTradeIDs))
}

func TestNewTrade_DerivesAmount(t *testing.T) {
	price := decimal.RequireFromString("12.5")
	sell := NewTrade(TradeInput{StockName: "AAPL", Quantity: -4, BrokerName: "b", Price: &price}, time.Now())
	assert.True(t, sell.IsSell())
	assert.Equal(t, int64(4), sell.AbsQuantity())
	assert.True(t, decimal.RequireFromString("50").Equal(sell.Amount), "amount %s", sell.Amount)
}

func TestNewTrade_KeepsSuppliedTimestamp(t *testing.T) {
	price := decimal.NewFromInt(1)
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	trade := NewTrade(TradeInput{StockName: "X", Quantity: 1, BrokerName: "b", Price: &price, Timestamp: &ts}, time.Now())
	assert.Equal(t, ts, trade.Timestamp)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	assert.NoError(t, err)
	assert.Equal(t, MethodFIFO, m)

	m, err = ParseMethod("lifo")
	assert.NoError(t, err)
	assert.Equal(t, MethodLIFO, m)

	_, err = ParseMethod("AVERAGE")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "method", verr.Fields[0].Field)
}

func TestOpenQuantity(t *testing.T) {
	a := NewLot(buyTrade(100, "10"), MethodFIFO, time.Now())
	b := NewLot(buyTrade(50, "12"), MethodFIFO, time.Now())
	_, err := b.Realize(uuid.New(), 20, MethodFIFO, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(130), OpenQuantity([]Lot{*a, *b}))
}

func TestOpenQuantity_Saturates(t *testing.T) {
	a := NewLot(buyTrade(math.MaxInt64, "0"), MethodFIFO, time.Now())
	b := NewLot(buyTrade(math.MaxInt64, "0"), MethodFIFO, time.Now())
	assert.Equal(t, int64(math.MaxInt64), OpenQuantity([]Lot{*a, *b}))

	c := NewLot(buyTrade(MaxQuantity, "0"), MethodFIFO, time.Now())
	assert.Equal(t, 2*MaxQuantity, OpenQuantity([]Lot{*c, *c}))
}

func TestTradeAmount_NeverNegative(t *testing.T) {
	price := decimal.RequireFromString("10")
	for _, qty := range []int64{math.MinInt64, -MaxQuantity, -1, 1, MaxQuantity, math.MaxInt64} {
		assert.False(t, TradeAmount(price, qty).IsNegative(), "qty %d", qty)
	}
	assert.True(t, decimal.RequireFromString("10000000000000").Equal(TradeAmount(price, -MaxQuantity)))
}

func TestTrade_MarshalsDecimalsAsNumbers(t *testing.T) {
	out, err := json.Marshal(buyTrade(3, "12.5"))
	assert.NoError(t, err)
	assert.Contains(t, string(out), `"price":12.5`)
	assert.Contains(t, string(out), `"amount":37.5`)
}
