package cli

import (
	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

var categoryColor = map[string]*color.Color{
	"ai":       color.New(color.FgMagenta, color.Bold),
	"resource": color.New(color.FgCyan, color.Bold),
	"action":   color.New(color.FgYellow, color.Bold),
}
