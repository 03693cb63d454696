package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Catalog struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

// Record upserts rec under its timestamp. Recording a failed invocation
// over an earlier complete one (or the other way around) keeps the latest
// truth.
func (c *Catalog) Record(ctx context.Context, rec Record) error {
	c.Lock.Lock()
	defer c.Lock.Unlock()

	c.Logger.Debug().
		Str("timestamp", rec.Timestamp).
		Bool("complete", rec.Complete).
		Msg("recording backup set")

	if c.DryRun {
		return nil
	}

	return c.Cli.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
}

// Get returns the record for ts, or nil when the catalog has none.
func (c *Catalog) Get(ctx context.Context, ts string) (*Record, error) {
	c.Lock.Lock()
	defer c.Lock.Unlock()

	rec := Record{}
	err := c.Cli.WithContext(ctx).Where(Record{Timestamp: ts}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecords returns all records, newest first.
func (c *Catalog) ListRecords(ctx context.Context) ([]Record, error) {
	c.Lock.Lock()
	defer c.Lock.Unlock()

	var recs []Record
	err := c.Cli.WithContext(ctx).Order("timestamp DESC").Find(&recs).Error
	return recs, err
}
