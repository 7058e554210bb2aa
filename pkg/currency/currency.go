package currency

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	// Quote is the settlement currency every exchange resolves to.
	Quote = "USDT"
	// DefaultDecimals is used when an asset carries no display precision.
	DefaultDecimals = 2
)

// AssetMeta holds static per-asset metadata: display name, display
// precision and the policy maximum gross amount per exchange, expressed
// in the asset's own units.
type AssetMeta struct {
	Code      string          `validate:"required,uppercase"`
	Name      string          `validate:"required"`
	Decimals  int             `validate:"gte=0,lte=18"`
	MaxAmount decimal.Decimal `validate:"required"`
}

// Format renders an amount with the asset's display precision. Amounts
// with more fractional digits than the asset displays are truncated,
// not rounded: a zero-decimal asset shows 83.7 as "83" while validation
// still operates on the true fractional value.
func (m AssetMeta) Format(amount decimal.Decimal) string {
	return amount.Truncate(int32(m.Decimals)).StringFixed(int32(m.Decimals))
}

// Registry is the set of assets the exchange accepts. It is constructed
// once at startup and injected where needed; lookups are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	assets map[string]AssetMeta
}

// NewRegistry creates a registry preloaded with the default asset set.
func NewRegistry() *Registry {
	r := &Registry{assets: make(map[string]AssetMeta)}

	for _, meta := range []AssetMeta{
		{Code: "BTC", Name: "Bitcoin", Decimals: 6, MaxAmount: decimal.RequireFromString("0.000014")},
		{Code: "ETH", Name: "Ethereum", Decimals: 5, MaxAmount: decimal.RequireFromString("0.00025")},
		{Code: "SOL", Name: "Solana", Decimals: 3, MaxAmount: decimal.RequireFromString("0.005")},
		{Code: "TON", Name: "Toncoin", Decimals: 3, MaxAmount: decimal.RequireFromString("0.25")},
		{Code: "NOT", Name: "Notcoin", Decimals: 0, MaxAmount: decimal.RequireFromString("83")},
		{Code: "USDT", Name: "Tether", Decimals: 2, MaxAmount: decimal.RequireFromString("0.5")},
	} {
		r.Register(meta)
	}

	return r
}

// Register adds or replaces an asset.
func (r *Registry) Register(meta AssetMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[meta.Code] = meta
}

// Get returns the metadata for an asset code.
func (r *Registry) Get(code string) (AssetMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.assets[code]
	return meta, ok
}

// IsSupported reports whether an asset code is registered.
func (r *Registry) IsSupported(code string) bool {
	_, ok := r.Get(code)
	return ok
}

// List returns all registered assets sorted by code.
func (r *Registry) List() []AssetMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AssetMeta, 0, len(r.assets))
	for _, meta := range r.assets {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}
