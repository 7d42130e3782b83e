// Package store implements stage B's persister: a file-backed relational
// store holding one row per closed bar. Inserts are autocommit and
// best-effort — an insert error is logged and swallowed, never retried,
// and never blocks the bar from still being broadcast.
package store

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/ticks"
)

// Row is the tick_1min schema of the external interface contract.
type Row struct {
	Symbol string  `gorm:"column:symbol"`
	TS     int64   `gorm:"column:ts"`
	Open   float64 `gorm:"column:open"`
	High   float64 `gorm:"column:high"`
	Low    float64 `gorm:"column:low"`
	Close  float64 `gorm:"column:close"`
	Volume int64   `gorm:"column:volume"`
}

// TableName pins the row to the contract's table name rather than gorm's
// pluralization default.
func (Row) TableName() string {
	return "tick_1min"
}

// Store is the persister: one gorm handle over a SQLite file, opened at
// startup and never closed explicitly.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open opens (or creates) the SQLite file at path and ensures the
// tick_1min table exists.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("store: migrate tick_1min: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Persist inserts one closed bar. Prices are rounded to five fractional
// digits before insertion, matching the wire formatting contract. A bar
// with no symbol is skipped as a defensive safety net: the aggregator's bar
// creation rule can never actually produce one, but the reference treats a
// missing-open record as droppable rather than a hard failure.
func (s *Store) Persist(bar ticks.Bar) {
	if bar.Symbol == "" {
		s.log.Warn("store: skipping bar with no symbol")
		return
	}

	row := Row{
		Symbol: bar.Symbol,
		TS:     bar.TS,
		Open:   bar.Open.Decimal().Round(5).InexactFloat64(),
		High:   bar.High.Decimal().Round(5).InexactFloat64(),
		Low:    bar.Low.Decimal().Round(5).InexactFloat64(),
		Close:  bar.Close.Decimal().Round(5).InexactFloat64(),
		Volume: bar.Volume,
	}

	if err := s.db.Create(&row).Error; err != nil {
		obs.PersistErrors.Inc()
		s.log.Warn("store: insert failed", "symbol", bar.Symbol, "ts", bar.TS, "error", err)
	}
}
