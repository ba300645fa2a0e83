package economy

import (
	"github.com/shopspring/decimal"

	"github.com/jensholdgaard/auction-house/internal/config"
)

// Formatter renders currency amounts, e.g. "12.50 coins".
type Formatter struct {
	singular string
	plural   string
	decimals int32
}

// NewFormatter returns a Formatter for the configured currency.
func NewFormatter(cfg config.EconomyConfig) Formatter {
	return Formatter{
		singular: cfg.CurrencySingular,
		plural:   cfg.CurrencyPlural,
		decimals: cfg.Decimals,
	}
}

// Format rounds amount half away from zero to the configured decimals.
func (f Formatter) Format(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(f.decimals)
	name := f.plural
	if d.Equal(decimal.NewFromInt(1)) {
		name = f.singular
	}
	if name == "" {
		return d.StringFixed(f.decimals)
	}
	return d.StringFixed(f.decimals) + " " + name
}
