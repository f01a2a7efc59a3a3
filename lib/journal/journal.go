// Package journal keeps replay results in a SQLite database.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dcernahoschi/mojitoswap-pool/lib/result"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is the stored form of a result.Record. Decimals are kept as text.
type Entry struct {
	ID        uint              `gorm:"primaryKey"`
	Scenario  string            `gorm:"index:idx_scenario_step"`
	Step      int               `gorm:"index:idx_scenario_step"`
	Type      string
	Account   string
	Label     string
	Amounts   map[string]string `gorm:"serializer:json"`
	Error     string
	SqrtPrice string
	Tick      int
	Liquidity string
	ReserveA  string
	ReserveB  string
	CreatedAt time.Time
}

type Journal struct {
	db *gorm.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (j *Journal) Append(ctx context.Context, records ...result.Record) error {
	if len(records) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r))
	}
	if err := j.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// ByScenario returns the records of a scenario in step order. Replaying the
// same scenario twice yields each step twice, oldest first.
func (j *Journal) ByScenario(ctx context.Context, name string) ([]result.Record, error) {
	var entries []Entry
	err := j.db.WithContext(ctx).
		Where("scenario = ?", name).
		Order("step, id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	records := make([]result.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.record())
	}
	return records, nil
}

func toEntry(r result.Record) Entry {
	return Entry{
		Scenario:  r.Scenario,
		Step:      r.Step,
		Type:      r.Type,
		Account:   r.Account,
		Label:     r.Label,
		Amounts:   r.Amounts,
		Error:     r.Error,
		SqrtPrice: r.Snapshot.SqrtPrice,
		Tick:      r.Snapshot.Tick,
		Liquidity: r.Snapshot.Liquidity,
		ReserveA:  r.Snapshot.ReserveA,
		ReserveB:  r.Snapshot.ReserveB,
	}
}

func (e Entry) record() result.Record {
	return result.Record{
		Scenario: e.Scenario,
		Step:     e.Step,
		Type:     e.Type,
		Account:  e.Account,
		Label:    e.Label,
		Amounts:  e.Amounts,
		Error:    e.Error,
		Snapshot: result.Snapshot{
			SqrtPrice: e.SqrtPrice,
			Tick:      e.Tick,
			Liquidity: e.Liquidity,
			ReserveA:  e.ReserveA,
			ReserveB:  e.ReserveB,
		},
	}
}
