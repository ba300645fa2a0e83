// Package item models the item stacks players trade and the canonical key
// used to deduplicate shops.
package item

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by Validate.
var (
	ErrNoMaterial    = errors.New("item has no material")
	ErrInvalidAmount = errors.New("item amount must be at least 1")
)

// Meta is the descriptive metadata attached to a stack.
type Meta struct {
	DisplayName string   `json:"display_name,omitempty"`
	Lore        []string `json:"lore,omitempty"`
}

// Stack is a quantity of one item type together with its per-stack metadata.
type Stack struct {
	Material string `json:"material"`
	Variant  int    `json:"variant,omitempty"`
	Amount   int    `json:"amount"`
	Meta     *Meta  `json:"meta,omitempty"`
}

// Validate checks that the stack can be listed for sale.
func (s Stack) Validate() error {
	if strings.TrimSpace(s.Material) == "" {
		return ErrNoMaterial
	}
	if s.Amount < 1 {
		return ErrInvalidAmount
	}
	return nil
}

// HasMeta reports whether the stack carries metadata.
func (s Stack) HasMeta() bool {
	return s.Meta != nil
}

// Lore returns a copy of the stack's lore lines, or nil.
func (s Stack) Lore() []string {
	if s.Meta == nil || len(s.Meta.Lore) == 0 {
		return nil
	}
	out := make([]string, len(s.Meta.Lore))
	copy(out, s.Meta.Lore)
	return out
}

// Clone returns a deep copy of the stack.
func (s Stack) Clone() Stack {
	c := s
	if s.Meta != nil {
		m := *s.Meta
		m.Lore = s.Lore()
		c.Meta = &m
	}
	return c
}

// WithLore returns a copy of the stack whose lore is replaced by lines.
func (s Stack) WithLore(lines []string) Stack {
	c := s.Clone()
	if c.Meta == nil {
		c.Meta = &Meta{}
	}
	c.Meta.Lore = lines
	return c
}

// Value implements driver.Valuer so stacks can be stored in JSON columns.
func (s Stack) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding item stack: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *Stack) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*s = Stack{}
		return nil
	default:
		return fmt.Errorf("scanning item stack: unsupported type %T", src)
	}
	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("decoding item stack: %w", err)
	}
	return nil
}
