package standardize

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestStandardizeAKShareBatch(t *testing.T) {
	engine := NewEngine(0.5)
	engine.RegisterMapping(AKShareMapping())

	rows := []model.RawRow{
		{"日期": "2024-01-05", "开盘": 1688.0, "最高": 1712.5, "最低": 1680.0, "收盘": 1700.88, "成交量": 31250.0, "换手率": 0.12},
		{"日期": "2024-01-04", "开盘": 1671.0, "最高": 1690.0, "最低": 1665.2, "收盘": 1688.0, "成交量": 28400.0, "换手率": 0.11},
	}
	records, dropped, err := engine.Standardize("akshare", "600519", enum.AssetTypeStock, enum.DataTypeHistoricalKline, rows)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, records, 2)

	// Output is sorted by timestamp regardless of input order.
	first := records[0]
	assert.Equal(t, "600519.SH", first.Symbol)
	assert.Equal(t, "akshare", first.ProviderID)
	// 2024-01-04 in Asia/Shanghai is 2024-01-03T16:00Z.
	assert.Equal(t, time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC), first.Timestamp)
	assert.True(t, first.Close.Valid)
	assert.True(t, first.Close.Decimal.Equal(decimal.NewFromFloat(1688.0)))
	// Unmapped provider columns survive in Extra.
	assert.Equal(t, 0.11, first.Extra["换手率"])

	assert.True(t, records[0].Timestamp.Before(records[1].Timestamp))
}

func TestStandardizeTushareUnitConversion(t *testing.T) {
	engine := NewEngine(0.5)
	engine.RegisterMapping(TushareMapping())

	rows := []model.RawRow{
		{"ts_code": "000001.SZ", "trade_date": "20240105", "open": "10.5", "high": "10.9", "low": "10.4", "close": "10.8", "vol": "1520"},
	}
	records, _, err := engine.Standardize("tushare", "000001", enum.AssetTypeStock, enum.DataTypeHistoricalKline, rows)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// vol is quoted in lots of 100 shares.
	assert.True(t, records[0].Volume.Decimal.Equal(decimal.NewFromInt(152000)))
	assert.Equal(t, "000001.SZ", records[0].Symbol)
}

func TestStandardizeEpochSeconds(t *testing.T) {
	engine := NewEngine(0.5)
	engine.RegisterMapping(YFinanceMapping())

	ts := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	rows := []model.RawRow{
		{"symbol": "aapl", "timestamp": ts.Unix(), "open": 182.5, "high": 184.0, "low": 181.9, "close": 183.38, "volume": 52_000_000.0},
	}
	records, _, err := engine.Standardize("yfinance", "AAPL", enum.AssetTypeStockUS, enum.DataTypeHistoricalKline, rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ts, records[0].Timestamp)
	assert.Equal(t, "AAPL", records[0].Symbol)
}

func TestStandardizeDropsUnmappableRows(t *testing.T) {
	engine := NewEngine(0.5)
	engine.RegisterMapping(AKShareMapping())

	rows := []model.RawRow{
		{"日期": "2024-01-04", "收盘": 1688.0},
		{"日期": "not-a-date", "收盘": 1700.0},
		{"日期": "2024-01-05", "收盘": "n/a"},
		{"日期": "2024-01-08", "收盘": 1710.0},
	}
	records, dropped, err := engine.Standardize("akshare", "600519", enum.AssetTypeStock, enum.DataTypeHistoricalKline, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Len(t, records, 2)
}

func TestStandardizeFailsBatchOverDropThreshold(t *testing.T) {
	engine := NewEngine(0.25)
	engine.RegisterMapping(AKShareMapping())

	rows := []model.RawRow{
		{"日期": "2024-01-04", "收盘": 1688.0},
		{"日期": "bad", "收盘": 1700.0},
		{"日期": "worse", "收盘": 1710.0},
	}
	_, dropped, err := engine.Standardize("akshare", "600519", enum.AssetTypeStock, enum.DataTypeHistoricalKline, rows)
	require.ErrorIs(t, err, exception.ErrStandardizationQuality)
	assert.Equal(t, 2, dropped)

	var qerr *exception.StandardizationQualityError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "akshare", qerr.ProviderID)
	assert.Equal(t, 3, qerr.Total)
}

func TestStandardizeUnknownProvider(t *testing.T) {
	engine := NewEngine(0.5)
	_, _, err := engine.Standardize("bloomberg", "600519", enum.AssetTypeStock, enum.DataTypeHistoricalKline, []model.RawRow{{}})
	assert.ErrorIs(t, err, exception.ErrUnknownMapping)
}

func TestStandardizeEmptyBatch(t *testing.T) {
	engine := NewEngine(0.5)
	engine.RegisterMapping(AKShareMapping())
	_, _, err := engine.Standardize("akshare", "600519", enum.AssetTypeStock, enum.DataTypeHistoricalKline, nil)
	assert.ErrorIs(t, err, exception.ErrEmptyBatch)
}

func TestRegisterMappingConcurrentWithStandardize(t *testing.T) {
	engine := NewEngine(0.5)
	engine.RegisterMapping(AKShareMapping())
	rows := []model.RawRow{
		{"日期": "2024-01-04", "开盘": 1671.0, "最高": 1690.0, "最低": 1665.2, "收盘": 1688.0, "成交量": 28400.0},
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				engine.RegisterMapping(TushareMapping())
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				_, _, err := engine.Standardize("akshare", "600519", enum.AssetTypeStock, enum.DataTypeHistoricalKline, rows)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
