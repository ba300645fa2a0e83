package auction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/item"
)

// Trade stack lore layout.
const (
	TokenPrefix   = "Sale#"
	LoreSeparator = "----------"

	colorToken  = "§8"
	colorPrice  = "§a"
	colorUnit   = "§2"
	colorSeller = "§9"
)

// tokenPattern matches a whole token line so seller names and item lore
// that merely contain the prefix are never mistaken for one.
var tokenPattern = regexp.MustCompile(`^(?:§.)?` + regexp.QuoteMeta(TokenPrefix) + `(\S*)$`)

// PriceFormatter renders a currency amount.
type PriceFormatter interface {
	Format(amount float64) string
}

// Display generates the trade stacks shown to buyers.
type Display struct {
	lang  config.LangConfig
	money PriceFormatter
}

// NewDisplay returns a Display using the given templates and formatter.
func NewDisplay(lang config.LangConfig, money PriceFormatter) *Display {
	return &Display{lang: lang, money: money}
}

// Refresh regenerates the sale's trade stack from its item, price and
// seller. It does nothing for a sale without seller data and panics if the
// item amount is below one.
func (d *Display) Refresh(sale *Sale) {
	if sale == nil || sale.Seller == nil {
		return
	}
	amount := sale.Item.Amount
	if amount < 1 {
		panic(fmt.Sprintf("auction: sale %d has item amount %d", sale.ID, amount))
	}

	lore := sale.Item.Lore()
	if len(lore) > 0 {
		lore = append(lore, LoreSeparator)
	}
	lore = append(lore, colorToken+TokenPrefix+strconv.FormatInt(sale.ID, 10))

	if !sale.Price.Valid {
		lore = append(lore, d.lang.NoPrice)
	} else {
		price := sale.Price.Float64
		lore = append(lore,
			colorPrice+d.money.Format(price),
			colorUnit+strings.ReplaceAll(d.lang.PricePerUnit, "%price%", d.money.Format(price/float64(amount))),
		)
	}

	name := sale.Seller.Player.Name
	if name == "" {
		name = d.lang.UnknownPlayer
	}
	lore = append(lore, colorSeller+strings.ReplaceAll(d.lang.SoldBy, "%player%", name))

	sale.trade = sale.Item.WithLore(lore)
	sale.hasTrade = true
}

// ParseToken extracts the sale id from a trade stack. The generated lines
// follow any original lore, so the last line consisting only of a token wins.
func ParseToken(stack item.Stack) (int64, error) {
	lore := stack.Lore()
	if len(lore) == 0 {
		return 0, ErrNotSaleToken
	}
	for i := len(lore) - 1; i >= 0; i-- {
		m := tokenPattern.FindStringSubmatch(lore[i])
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id < 1 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidToken, lore[i])
		}
		return id, nil
	}
	return 0, ErrNotSaleToken
}
