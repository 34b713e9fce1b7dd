package storage

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/model"
	"main/pkg/conn"
	"main/pkg/exception"
)

// UnitHealth tracks the corruption-recovery lifecycle of a storage unit.
type UnitHealth uint8

const (
	UnitHealthy UnitHealth = iota
	UnitSuspectedCorrupt
	UnitQuarantined
)

func (h UnitHealth) String() string {
	switch h {
	case UnitHealthy:
		return "healthy"
	case UnitSuspectedCorrupt:
		return "suspected_corrupt"
	case UnitQuarantined:
		return "quarantined"
	default:
		return "unknown"
	}
}

var upsertColumns = []string{"open", "high", "low", "close", "volume", "provider_id", "extra", "updated_at"}

const createBatchSize = 500

// Unit is one physical database scoped to an asset-type family. It owns a
// bounded token pool gating concurrent writes; pool state mutates only
// under this unit's lock, so one family's write storm never blocks
// another family.
type Unit struct {
	family         string
	path           string
	client         *conn.Client
	db             *gorm.DB
	tokens         chan struct{}
	acquireTimeout time.Duration

	mu            sync.Mutex
	health        UnitHealth
	closed        bool
	tables        map[string]struct{}
	recoveredFrom string
}

func newUnit(family, path string, client *conn.Client, poolSize int, acquireTimeout time.Duration) *Unit {
	tokens := make(chan struct{}, poolSize)
	for range poolSize {
		tokens <- struct{}{}
	}
	return &Unit{
		family:         family,
		path:           path,
		client:         client,
		db:             client.DB(),
		tokens:         tokens,
		acquireTimeout: acquireTimeout,
		health:         UnitHealthy,
		tables:         make(map[string]struct{}),
	}
}

func newQuarantinedUnit(family, path string) *Unit {
	return &Unit{
		family: family,
		path:   path,
		health: UnitQuarantined,
	}
}

// Family returns the asset-type family key this unit stores.
func (u *Unit) Family() string {
	return u.family
}

// Path returns the backing database file path.
func (u *Unit) Path() string {
	return u.path
}

// Health returns the unit's current lifecycle state.
func (u *Unit) Health() UnitHealth {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.health
}

// RecoveredFrom returns the backup path of a corrupted predecessor file,
// if this unit replaced one.
func (u *Unit) RecoveredFrom() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.recoveredFrom
}

// usable reports whether the unit can serve queries.
func (u *Unit) usable() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return exception.ErrUnitClosed
	}
	if u.health == UnitQuarantined {
		return exception.ErrUnitQuarantined
	}
	return nil
}

// acquire checks out one pool token, blocking up to the configured
// timeout. Exhaustion fails fast instead of hanging the caller.
func (u *Unit) acquire(ctx context.Context) error {
	timer := time.NewTimer(u.acquireTimeout)
	defer timer.Stop()
	select {
	case <-u.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return exception.ErrPoolExhausted
	}
}

func (u *Unit) release() {
	u.tokens <- struct{}{}
}

// Write upserts rows into the named table, creating the table on first
// use. The pool token is released on every exit path.
func (u *Unit) Write(ctx context.Context, table string, rows []model.KlineRow) error {
	if err := u.usable(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	if err := u.acquire(ctx); err != nil {
		return err
	}
	defer u.release()

	if err := u.ensureTable(table); err != nil {
		return err
	}

	err := u.db.WithContext(ctx).
		Table(table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "ts"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		CreateInBatches(rows, createBatchSize).Error
	if err != nil {
		return errors.Wrap(err, "upsert "+table)
	}
	return nil
}

// Read returns one symbol's rows from the named table in timestamp order.
func (u *Unit) Read(ctx context.Context, table, symbol string) ([]model.KlineRow, error) {
	if err := u.usable(); err != nil {
		return nil, err
	}
	if err := u.acquire(ctx); err != nil {
		return nil, err
	}
	defer u.release()

	var rows []model.KlineRow
	err := u.db.WithContext(ctx).
		Table(table).
		Where("symbol = ?", symbol).
		Order("ts asc").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "read "+table)
	}
	return rows, nil
}

// Count returns the number of rows in the named table.
func (u *Unit) Count(ctx context.Context, table string) (int64, error) {
	if err := u.usable(); err != nil {
		return 0, err
	}
	if err := u.acquire(ctx); err != nil {
		return 0, err
	}
	defer u.release()

	var n int64
	if err := u.db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count "+table)
	}
	return n, nil
}

func (u *Unit) ensureTable(table string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.tables[table]; ok {
		return nil
	}
	if err := u.db.Table(table).AutoMigrate(&model.KlineRow{}); err != nil {
		return errors.Wrap(err, "migrate "+table)
	}
	u.tables[table] = struct{}{}
	return nil
}

// Close releases the underlying connection pool. A closed unit rejects
// further reads and writes with ErrUnitClosed. Idempotent.
func (u *Unit) Close() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	u.mu.Unlock()
	return u.client.Close()
}
