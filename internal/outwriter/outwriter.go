// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/discomfort/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableLabelWidth calculates the maximum width for segment labels in table output
// based on terminal width and table configuration.
func GetMaxTableLabelWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Variant + Score + Label with borders/padding
	baseWidth := 40

	if cfg.Detail {
		baseWidth += 40 // Length + Region + other total
	}
	if cfg.Explain {
		baseWidth += 45
	}

	// Table borders, separators and padding
	baseWidth += 15

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 60 {
		return 60
	}
	return available
}
