package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(Config{
		DataDir:        t.TempDir(),
		PoolSize:       2,
		AcquireTimeout: time.Second,
	})
	t.Cleanup(func() {
		_ = m.Close()
	})
	return m
}

func dec(f float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

func testRecords(symbol string, n int) []model.CanonicalRecord {
	base := time.Date(2024, 1, 4, 16, 0, 0, 0, time.UTC)
	records := make([]model.CanonicalRecord, 0, n)
	for i := range n {
		records = append(records, model.CanonicalRecord{
			Symbol:     symbol,
			AssetType:  enum.AssetTypeStock,
			DataType:   enum.DataTypeHistoricalKline,
			Timestamp:  base.Add(time.Duration(i) * 24 * time.Hour),
			Open:       dec(1671 + float64(i)),
			High:       dec(1690 + float64(i)),
			Low:        dec(1665 + float64(i)),
			Close:      dec(1688 + float64(i)),
			Volume:     dec(28400),
			ProviderID: "akshare",
			Extra:      map[string]any{"source": "test"},
		})
	}
	return records
}

func TestManagerLazyUnitCreation(t *testing.T) {
	m := testManager(t)

	unit, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	assert.Equal(t, UnitHealthy, unit.Health())
	assert.Equal(t, "stock", unit.Family())
	assert.FileExists(t, unit.Path())
	assert.Equal(t, "stock_data.db", filepath.Base(unit.Path()))

	// Memoized by family key.
	again, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	assert.Same(t, unit, again)
}

func TestManagerFamilyAliasing(t *testing.T) {
	m := testManager(t)

	stock, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	etf, err := m.Unit(enum.AssetTypeETF)
	require.NoError(t, err)
	future, err := m.Unit(enum.AssetTypeFuture)
	require.NoError(t, err)

	assert.Same(t, stock, etf)
	assert.NotSame(t, stock, future)
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	records := testRecords("600519.SH", 3)
	table := enum.DataTypeHistoricalKline.TableName()

	written, err := m.Write(ctx, enum.AssetTypeStock, table, records)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	unit, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	rows, err := unit.Read(ctx, table, "600519.SH")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	back, err := rows[0].Record(enum.AssetTypeStock, enum.DataTypeHistoricalKline)
	require.NoError(t, err)
	assert.Equal(t, records[0].Symbol, back.Symbol)
	assert.True(t, back.Timestamp.Equal(records[0].Timestamp))
	assert.Equal(t, "akshare", back.ProviderID)
	assert.True(t, back.Close.Decimal.Equal(records[0].Close.Decimal))
	assert.Equal(t, "test", back.Extra["source"])
}

func TestWriteIdempotentUpsert(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	records := testRecords("000001.SZ", 5)
	table := enum.DataTypeHistoricalKline.TableName()

	_, err := m.Write(ctx, enum.AssetTypeStock, table, records)
	require.NoError(t, err)
	_, err = m.Write(ctx, enum.AssetTypeStock, table, records)
	require.NoError(t, err)

	unit, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	count, err := unit.Count(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestCorruptedUnitRecovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stock", "stock_data.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// Malformed header bytes: structurally unreadable, present on disk.
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite file, not even close"), 0o644))

	m := NewManager(Config{DataDir: dir, PoolSize: 2, AcquireTimeout: time.Second})
	defer func() {
		_ = m.Close()
	}()

	unit, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	assert.Equal(t, UnitHealthy, unit.Health())
	assert.NotEmpty(t, unit.RecoveredFrom())
	assert.FileExists(t, unit.RecoveredFrom())

	// The replacement unit is empty and writable.
	written, err := m.Write(context.Background(), enum.AssetTypeStock, "historical_kline", testRecords("600519.SH", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	// A sibling family is untouched by the recovery.
	future, err := m.Unit(enum.AssetTypeFuture)
	require.NoError(t, err)
	assert.Equal(t, UnitHealthy, future.Health())
}

func TestUnusableUnitQuarantined(t *testing.T) {
	dir := t.TempDir()
	// Make the unit path a directory: sqlite cannot open it, and it can
	// be neither renamed over nor deleted as a file.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stock", "stock_data.db", "x"), 0o755))

	m := NewManager(Config{DataDir: dir, PoolSize: 2, AcquireTimeout: time.Second})
	defer func() {
		_ = m.Close()
	}()

	_, err := m.Unit(enum.AssetTypeStock)
	assert.ErrorIs(t, err, exception.ErrUnitQuarantined)

	// Unrelated asset types keep functioning.
	written, werr := m.Write(context.Background(), enum.AssetTypeCrypto, "historical_kline", testRecords("BTCUSDT", 2))
	require.NoError(t, werr)
	assert.Equal(t, 2, written)
}

func TestPoolExhaustedFailsFast(t *testing.T) {
	m := NewManager(Config{
		DataDir:        t.TempDir(),
		PoolSize:       1,
		AcquireTimeout: 50 * time.Millisecond,
	})
	defer func() {
		_ = m.Close()
	}()
	ctx := context.Background()

	unit, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)

	// Hold the only token; the next write must fail fast, not hang.
	require.NoError(t, unit.acquire(ctx))
	_, err = m.Write(ctx, enum.AssetTypeStock, "historical_kline", testRecords("600519.SH", 1))
	assert.ErrorIs(t, err, exception.ErrPoolExhausted)

	// Another family's pool is untouched by this exhaustion.
	_, err = m.Write(ctx, enum.AssetTypeFuture, "historical_kline", testRecords("IF2406", 1))
	require.NoError(t, err)

	unit.release()
	_, err = m.Write(ctx, enum.AssetTypeStock, "historical_kline", testRecords("600519.SH", 1))
	require.NoError(t, err)
}

func TestClosedUnitRejectsAccess(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	table := enum.DataTypeHistoricalKline.TableName()

	_, err := m.Write(ctx, enum.AssetTypeStock, table, testRecords("600519.SH", 1))
	require.NoError(t, err)

	unit, err := m.Unit(enum.AssetTypeStock)
	require.NoError(t, err)
	require.NoError(t, unit.Close())
	// Idempotent.
	require.NoError(t, unit.Close())

	err = unit.Write(ctx, table, nil)
	assert.ErrorIs(t, err, exception.ErrUnitClosed)
	_, err = unit.Read(ctx, table, "600519.SH")
	assert.ErrorIs(t, err, exception.ErrUnitClosed)
	_, err = unit.Count(ctx, table)
	assert.ErrorIs(t, err, exception.ErrUnitClosed)
}

func TestUnknownAssetType(t *testing.T) {
	m := testManager(t)
	_, err := m.Unit(enum.AssetType(0))
	assert.ErrorIs(t, err, exception.ErrUnknownAssetType)
}
