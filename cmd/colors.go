package cmd

import "github.com/fatih/color"

// Shared color printers for CLI summaries.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen)
	colorBold   = color.New(color.Bold)
)

// colorStatus colors render history statuses.
func colorStatus(val string) string {
	switch val {
	case "invalid":
		return colorRed.Sprint(val)
	case "merged":
		return colorYellow.Sprint(val)
	case "rendered":
		return colorGreen.Sprint(val)
	default:
		return val
	}
}
