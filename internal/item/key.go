package item

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is the canonical item-type identity. Two stacks share a Key when they
// have the same material and variant, whatever their amount or metadata.
type Key struct {
	Material string
	Variant  int
}

// KeyFor returns the canonical key of a stack.
func KeyFor(s Stack) Key {
	return Key{
		Material: strings.ToUpper(strings.TrimSpace(s.Material)),
		Variant:  s.Variant,
	}
}

// Stack returns the reference stack for the key: a single item with no
// metadata.
func (k Key) Stack() Stack {
	return Stack{Material: k.Material, Variant: k.Variant, Amount: 1}
}

// String renders the key as MATERIAL or MATERIAL:variant.
func (k Key) String() string {
	if k.Variant == 0 {
		return k.Material
	}
	return k.Material + ":" + strconv.Itoa(k.Variant)
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	material, variant, found := strings.Cut(strings.TrimSpace(s), ":")
	if material == "" {
		return Key{}, ErrNoMaterial
	}
	k := Key{Material: strings.ToUpper(material)}
	if found {
		v, err := strconv.Atoi(variant)
		if err != nil {
			return Key{}, fmt.Errorf("parsing variant of %q: %w", s, err)
		}
		k.Variant = v
	}
	return k, nil
}
