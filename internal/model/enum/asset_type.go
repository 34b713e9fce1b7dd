package enum

// AssetType classifies a tradable instrument and decides which physical
// storage unit its data lands in.
//
// AssetTypeStock means a China A-share; the US market is the explicit
// AssetTypeStockUS. Do not rely on declaration order for defaults.
type AssetType uint8

const (
	_asset_type_beg AssetType = iota
	AssetTypeStock
	AssetTypeStockUS
	AssetTypeStockHK
	AssetTypeETF
	AssetTypeIndex
	AssetTypeFuture
	AssetTypeCrypto
	AssetTypeForex
	AssetTypeBond
	_asset_type_end
)

func (a AssetType) IsAvailable() bool {
	return a > _asset_type_beg && a < _asset_type_end
}

func (a AssetType) String() string {
	switch a {
	case AssetTypeStock:
		return "stock"
	case AssetTypeStockUS:
		return "stock_us"
	case AssetTypeStockHK:
		return "stock_hk"
	case AssetTypeETF:
		return "etf"
	case AssetTypeIndex:
		return "index"
	case AssetTypeFuture:
		return "future"
	case AssetTypeCrypto:
		return "crypto"
	case AssetTypeForex:
		return "forex"
	case AssetTypeBond:
		return "bond"
	default:
		return "unknown"
	}
}

// Family returns the storage family key. ETF and index data share the
// stock unit; every other asset type owns its own unit.
func (a AssetType) Family() string {
	switch a {
	case AssetTypeStock, AssetTypeETF, AssetTypeIndex:
		return "stock"
	case AssetTypeStockUS:
		return "stock_us"
	case AssetTypeStockHK:
		return "stock_hk"
	case AssetTypeFuture:
		return "future"
	case AssetTypeCrypto:
		return "crypto"
	case AssetTypeForex:
		return "forex"
	case AssetTypeBond:
		return "bond"
	default:
		return "unknown"
	}
}

// ParseAssetType resolves a config-facing name into an AssetType.
func ParseAssetType(s string) (AssetType, bool) {
	for a := _asset_type_beg + 1; a < _asset_type_end; a++ {
		if a.String() == s {
			return a, true
		}
	}
	return _asset_type_beg, false
}
