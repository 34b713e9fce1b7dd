package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/conn"
	"main/pkg/exception"
)

// Config bounds each unit's connection pool.
type Config struct {
	DataDir        string
	PoolSize       int
	AcquireTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 5 * time.Second
	}
	return c
}

// Manager owns every storage unit, one per asset-type family, created
// lazily on first access. Unit lifecycles belong exclusively to the
// manager; writers hold non-owning references.
type Manager struct {
	cfg Config

	mu    sync.Mutex
	slots map[string]*unitSlot
}

type unitSlot struct {
	once sync.Once
	unit *Unit
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:   cfg.withDefaults(),
		slots: make(map[string]*unitSlot),
	}
}

// Unit returns the storage unit for an asset type, creating it on first
// access. A quarantined unit reports ErrUnitQuarantined: temporarily
// unavailable, never fatal to other families.
func (m *Manager) Unit(assetType enum.AssetType) (*Unit, error) {
	family := assetType.Family()
	if !assetType.IsAvailable() {
		return nil, exception.ErrUnknownAssetType
	}

	m.mu.Lock()
	slot, ok := m.slots[family]
	if !ok {
		slot = &unitSlot{}
		m.slots[family] = slot
	}
	m.mu.Unlock()

	// Open outside the manager lock so one family's recovery never
	// stalls another family's lookups.
	slot.once.Do(func() {
		slot.unit = m.open(family)
	})
	if slot.unit.Health() == UnitQuarantined {
		return nil, exception.ErrUnitQuarantined
	}
	return slot.unit, nil
}

// Write converts canonical records into storage rows and upserts them
// through the asset type's unit. Returns the number of rows written.
func (m *Manager) Write(ctx context.Context, assetType enum.AssetType, table string, records []model.CanonicalRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	unit, err := m.Unit(assetType)
	if err != nil {
		return 0, err
	}
	rows := make([]model.KlineRow, 0, len(records))
	for _, rec := range records {
		row, err := rec.Row()
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	if err := unit.Write(ctx, table, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// open builds the unit for a family, walking the corruption recovery
// state machine when the backing file cannot be decoded.
func (m *Manager) open(family string) *Unit {
	path := m.unitPath(family)
	client, err := conn.New(conn.Option{Path: path, PoolSize: m.cfg.PoolSize})
	if err == nil {
		return newUnit(family, path, client, m.cfg.PoolSize, m.cfg.AcquireTimeout)
	}
	if !isStructuralError(err) {
		logs.Errorf("storage: open unit %s: %v", family, err)
		return newQuarantinedUnit(family, path)
	}

	// SuspectedCorrupt. Move the broken file aside with a rename: an
	// atomic metadata operation, since copying would have to read the
	// very bytes that just failed to decode.
	logs.Warnf("storage: unit %s suspected corrupt: %v", family, err)
	backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if renameErr := os.Rename(path, backup); renameErr != nil {
		logs.Warnf("storage: rename broken unit %s: %v", family, renameErr)
		if removeErr := os.Remove(path); removeErr != nil {
			logs.Errorf("storage: quarantine unit %s, cannot move or delete broken file: %v", family, removeErr)
			return newQuarantinedUnit(family, path)
		}
		backup = ""
	}

	client, err = conn.New(conn.Option{Path: path, PoolSize: m.cfg.PoolSize})
	if err != nil {
		logs.Errorf("storage: quarantine unit %s, reopen after recovery failed: %v", family, err)
		return newQuarantinedUnit(family, path)
	}
	unit := newUnit(family, path, client, m.cfg.PoolSize, m.cfg.AcquireTimeout)
	unit.recoveredFrom = backup
	logs.Infof("storage: unit %s recovered, broken file at %q", family, backup)
	return unit
}

func (m *Manager) unitPath(family string) string {
	return filepath.Join(m.cfg.DataDir, family, family+"_data.db")
}

// Close closes every open unit.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for family, slot := range m.slots {
		if slot.unit == nil {
			continue
		}
		if err := slot.unit.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close unit "+family)
		}
	}
	return firstErr
}

// isStructuralError reports whether an open failure looks like a broken
// database file rather than a missing one.
func isStructuralError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such file") {
		return false
	}
	return strings.Contains(msg, "not a database") ||
		strings.Contains(msg, "malformed") ||
		strings.Contains(msg, "corrupt")
}
