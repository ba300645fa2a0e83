package auction

import (
	"sort"
	"strings"

	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/item"
)

// Type groups shops into separate view pools.
type Type string

// Types classifies item keys into auction types using the configured
// material lists. Materials not listed fall into the default type.
type Types struct {
	def        Type
	byMaterial map[string]Type
	all        []Type
}

// NewTypes builds a classifier from cfg.
func NewTypes(cfg config.AuctionConfig) *Types {
	t := &Types{
		def:        Type(cfg.DefaultType),
		byMaterial: make(map[string]Type),
	}
	seen := map[Type]bool{t.def: true}
	t.all = append(t.all, t.def)
	for _, tc := range cfg.Types {
		typ := Type(tc.Name)
		for _, m := range tc.Materials {
			t.byMaterial[strings.ToUpper(strings.TrimSpace(m))] = typ
		}
		if !seen[typ] {
			seen[typ] = true
			t.all = append(t.all, typ)
		}
	}
	sort.Slice(t.all, func(i, j int) bool { return t.all[i] < t.all[j] })
	return t
}

// Of returns the type of k.
func (t *Types) Of(k item.Key) Type {
	if typ, ok := t.byMaterial[k.Material]; ok {
		return typ
	}
	return t.def
}

// Default returns the type of unlisted materials.
func (t *Types) Default() Type { return t.def }

// All returns every known type in name order.
func (t *Types) All() []Type {
	out := make([]Type, len(t.all))
	copy(out, t.all)
	return out
}

// Parse resolves a type name. An empty name is the default type.
func (t *Types) Parse(name string) (Type, bool) {
	if name == "" {
		return t.def, true
	}
	for _, typ := range t.all {
		if string(typ) == name {
			return typ, true
		}
	}
	return "", false
}
