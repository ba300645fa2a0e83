package main

import (
	"strings"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

// loreColors maps the section-sign colour codes used in trade stack lore.
var loreColors = map[byte]*color.Color{
	'2': color.New(color.FgGreen),
	'8': color.New(color.FgHiBlack),
	'9': color.New(color.FgHiBlue),
	'a': color.New(color.FgHiGreen),
}

const sectionSign = "§"

// renderLore turns a lore line with leading colour codes into terminal
// colours. Unknown codes are stripped.
func renderLore(line string) string {
	var c *color.Color
	for strings.HasPrefix(line, sectionSign) && len(line) > len(sectionSign) {
		code := line[len(sectionSign)]
		if known, ok := loreColors[code]; ok {
			c = known
		}
		line = line[len(sectionSign)+1:]
	}
	if c == nil {
		return line
	}
	return c.Sprint(line)
}
