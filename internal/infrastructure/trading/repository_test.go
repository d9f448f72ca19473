package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
	"github.com/vinaysengar-17/stock-trading/internal/domain/interfaces"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), ":memory:")
	assert.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func newBuy(stock string, qty int64, price string, at time.Time) *domain.Trade {
	p := decimal.RequireFromString(price)
	return domain.NewTrade(domain.TradeInput{StockName: stock, Quantity: qty, BrokerName: "broker", Price: &p}, at)
}

func seedLot(t *testing.T, repo *Repository, stock string, qty int64, at time.Time) *domain.Lot {
	t.Helper()
	ctx := context.Background()
	buy := newBuy(stock, qty, "10", at)
	assert.NoError(t, repo.CreateTrade(ctx, buy))
	lot := domain.NewLot(buy, domain.MethodFIFO, at)
	assert.NoError(t, repo.CreateLot(ctx, lot))
	return lot
}

func TestRepository_TradeRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	buy := newBuy("AAPL", 100, "10.25", at)
	assert.NoError(t, repo.CreateTrade(ctx, buy))

	got, err := repo.GetTrade(ctx, buy.ID)
	assert.NoError(t, err)
	assert.Equal(t, buy.ID, got.ID)
	assert.Equal(t, int64(100), got.Quantity)
	assert.True(t, decimal.RequireFromString("1025").Equal(got.Amount), "amount %s", got.Amount)
	assert.True(t, at.Equal(got.Timestamp))

	_, err = repo.GetTrade(ctx, uuid.New())
	assert.IsError(t, err, domain.ErrTradeNotFound)
}

func TestRepository_ListTradesNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	first := newBuy("AAPL", 1, "1", base)
	second := newBuy("MSFT", 1, "1", base.Add(time.Minute))
	assert.NoError(t, repo.CreateTrade(ctx, first))
	assert.NoError(t, repo.CreateTrade(ctx, second))

	trades, err := repo.ListTrades(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(trades))
	assert.Equal(t, second.ID, trades[0].ID)
	assert.Equal(t, first.ID, trades[1].ID)
}

func TestRepository_OpenLotsOrdering(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	a := seedLot(t, repo, "AAPL", 100, base)
	b := seedLot(t, repo, "AAPL", 50, base.Add(time.Second))
	seedLot(t, repo, "MSFT", 10, base.Add(2*time.Second))

	fifo, err := repo.OpenLots(ctx, "AAPL", domain.MethodFIFO)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, lotIDs(fifo))

	lifo, err := repo.OpenLots(ctx, "AAPL", domain.MethodLIFO)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, lotIDs(lifo))
}

func TestRepository_SaveRealization(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	lot := seedLot(t, repo, "AAPL", 10, at)

	sellID := uuid.New()
	r, err := lot.Realize(sellID, 10, domain.MethodLIFO, at.Add(time.Hour))
	assert.NoError(t, err)
	assert.NoError(t, repo.SaveRealization(ctx, lot, r, 0))

	stored, err := repo.GetLot(ctx, lot.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), stored.RealizedQuantity)
	assert.Equal(t, domain.LotStatusFullyRealized, stored.Status)
	assert.Equal(t, []uuid.UUID{sellID}, stored.RealizedTradeIDs)
	assert.Equal(t, domain.MethodLIFO, stored.Realizations[0].Method)

	open, err := repo.OpenLots(ctx, "AAPL", domain.MethodFIFO)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(open))

	// A stale previous quantity must not overwrite the lot.
	err = repo.SaveRealization(ctx, lot, r, 0)
	assert.IsError(t, err, domain.ErrConcurrentModification)
}

func TestRepository_ListLotsFilters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	a := seedLot(t, repo, "AAPL", 5, base)
	b := seedLot(t, repo, "AAPL", 5, base.Add(time.Second))
	m := seedLot(t, repo, "MSFT", 5, base.Add(2*time.Second))

	r, err := a.Realize(uuid.New(), 5, domain.MethodFIFO, base)
	assert.NoError(t, err)
	assert.NoError(t, repo.SaveRealization(ctx, a, r, 0))

	all, err := repo.ListLots(ctx, domain.LotFilter{Method: domain.MethodLIFO})
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m.ID, b.ID, a.ID}, lotIDs(all))

	aapl, err := repo.ListLots(ctx, domain.LotFilter{StockName: "AAPL", Method: domain.MethodFIFO})
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, lotIDs(aapl))

	closed, err := repo.ListLots(ctx, domain.LotFilter{Status: domain.LotStatusFullyRealized})
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, lotIDs(closed))

	_, err = repo.GetLot(ctx, uuid.New())
	assert.IsError(t, err, domain.ErrLotNotFound)
}

func TestRepository_WithinStockRollsBack(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	buy := newBuy("AAPL", 10, "1", at)
	err := repo.WithinStock(ctx, "AAPL", func(s interfaces.TradingStore) error {
		if err := s.CreateTrade(ctx, buy); err != nil {
			return err
		}
		if err := s.CreateLot(ctx, domain.NewLot(buy, domain.MethodFIFO, at)); err != nil {
			return err
		}
		return boom
	})
	assert.IsError(t, err, boom)

	_, err = repo.GetTrade(ctx, buy.ID)
	assert.IsError(t, err, domain.ErrTradeNotFound)
	lots, err := repo.ListLots(ctx, domain.LotFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(lots))
}

func TestStockLocks_Serializes(t *testing.T) {
	locks := newStockLocks()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(ctx, "AAPL")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, len(locks.slots))
}

func TestStockLocks_ContextCancelled(t *testing.T) {
	locks := newStockLocks()
	unlock, err := locks.Lock(context.Background(), "AAPL")
	assert.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "AAPL")
	assert.IsError(t, err, context.DeadlineExceeded)
}

func lotIDs(lots []domain.Lot) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.ID)
	}
	return ids
}
