package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vinaysengar-17/stock-trading/internal/domain/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Repository persists trades, lots and lot realizations through gorm.
type Repository struct {
	*store

	db     *gorm.DB
	sqlDB  *sql.DB
	pool   *pgxpool.Pool
	driver string
	locks  *stockLocks
}

var _ interfaces.TradingRepository = (*Repository)(nil)

// NewRepository opens the storage for the given driver and migrates the schema.
func NewRepository(ctx context.Context, driver, dsn string) (*Repository, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresRepository(ctx, dsn)
	case DriverSQLite:
		return NewSQLiteRepository(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewPostgresRepository builds a pgx pool and hands it to gorm.
func NewPostgresRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	r := newRepository(db, sqlDB, DriverPostgres)
	r.pool = pool
	if err := r.Migrate(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewSQLiteRepository opens a SQLite database. A single connection is used so that
// ":memory:" databases survive and writers never contend.
func NewSQLiteRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open gorm sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	r := newRepository(db, sqlDB, DriverSQLite)
	if err := r.Migrate(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func newRepository(db *gorm.DB, sqlDB *sql.DB, driver string) *Repository {
	return &Repository{
		store:  &store{db: db},
		db:     db,
		sqlDB:  sqlDB,
		driver: driver,
		locks:  newStockLocks(),
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
}

// Migrate creates or updates the trades, lots and lot_realizations tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&TradeModel{}, &LotModel{}, &LotRealizationModel{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (r *Repository) Driver() string {
	return r.driver
}

func (r *Repository) Ping(ctx context.Context) error {
	if r == nil || r.sqlDB == nil {
		return errors.New("repository is not initialized")
	}
	return r.sqlDB.PingContext(ctx)
}

func (r *Repository) Close() {
	if r == nil {
		return
	}
	if r.sqlDB != nil {
		_ = r.sqlDB.Close()
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

// WithinStock serializes writers of one stock. Inside the process a keyed mutex is held;
// on Postgres a transaction-scoped advisory lock covers other processes and candidate
// lots are read FOR UPDATE.
func (r *Repository) WithinStock(ctx context.Context, stock string, fn func(interfaces.TradingStore) error) error {
	unlock, err := r.locks.Lock(ctx, stock)
	if err != nil {
		return err
	}
	defer unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &store{db: tx}
		if r.driver == DriverPostgres {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", stock).Error; err != nil {
				return fmt.Errorf("lock stock %s: %w", stock, err)
			}
			scoped.lockRows = true
		}
		return fn(scoped)
	})
}
