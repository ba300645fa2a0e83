package main

import (
	"testing"

	"github.com/fatih/color"
)

func TestRenderLore(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	tests := []struct {
		line string
		want string
	}{
		{"§8Sale#12", "Sale#12"},
		{"§a10.00 coins", "10.00 coins"},
		{"§x§9Sold by alice", "Sold by alice"},
		{"plain lore", "plain lore"},
		{"§", "§"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := renderLore(tt.line); got != tt.want {
				t.Errorf("renderLore(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
