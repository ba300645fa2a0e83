package auction_test

import (
	"slices"
	"testing"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/item"
)

func TestTypes(t *testing.T) {
	types := auction.NewTypes(config.AuctionConfig{
		DefaultType: "misc",
		Types: []config.TypeConfig{
			{Name: "ores", Materials: []string{"iron_ore"}},
			{Name: "food", Materials: []string{"BREAD"}},
		},
	})

	if got := types.Of(item.Key{Material: "IRON_ORE"}); got != "ores" {
		t.Errorf("Of(IRON_ORE) = %q, want ores", got)
	}
	if got := types.Of(item.Key{Material: "STONE"}); got != "misc" {
		t.Errorf("Of(STONE) = %q, want misc", got)
	}
	if got := types.All(); !slices.Equal(got, []auction.Type{"food", "misc", "ores"}) {
		t.Errorf("All() = %v", got)
	}
	if typ, ok := types.Parse(""); !ok || typ != "misc" {
		t.Errorf("Parse(\"\") = %q, %v, want misc", typ, ok)
	}
	if _, ok := types.Parse("weapons"); ok {
		t.Error("Parse(weapons) should fail")
	}
}
