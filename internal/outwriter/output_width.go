package outwriter

import (
	"os"
	"strings"

	"github.com/huangsam/pulsecheck/internal/contract"
	"golang.org/x/term"
)

// getTextWidth returns the width available for wrapped recommendation text.
func getTextWidth(cfg *contract.Config) int {
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

	// Leave room for the "   " indent under each numbered item
	available := termWidth - 8
	if available < 40 {
		return 40
	}
	if available > 110 {
		return 110
	}
	return available
}

// wrapText breaks s into lines of at most width runes, on word boundaries.
// A single word longer than width gets its own line.
func wrapText(s string, width int) []string {
	var (
		lines []string
		line  strings.Builder
		n     int
	)
	for word := range strings.FieldsSeq(s) {
		wl := len([]rune(word))
		if n > 0 && n+1+wl > width {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
		if n > 0 {
			line.WriteByte(' ')
			n++
		}
		line.WriteString(word)
		n += wl
	}
	if n > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
