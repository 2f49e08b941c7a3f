package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/pulsecheck/schema"
)

// Color variables for console output.
var (
	GoodColor    = color.New(color.FgGreen, color.Bold)   // improving trends, best buckets
	BadColor     = color.New(color.FgRed, color.Bold)     // declining trends, worst buckets, HIGH priority
	CautionColor = color.New(color.FgYellow)              // MEDIUM priority, low confidence
	NeutralColor = color.New(color.FgCyan)                // stable, moderate, LOW priority
	MutedColor   = color.New(color.FgHiBlack)             // n/a markers
	HeaderColor  = color.New(color.FgHiWhite, color.Bold) // section titles
)

// NotAvailable is how every renderer shows an insufficient-data marker.
const NotAvailable = "n/a"

// GetDirectionLabel returns a colored label for a trend direction.
func GetDirectionLabel(d schema.Direction) string {
	switch d {
	case schema.Improving:
		return GoodColor.Sprint(d)
	case schema.Declining:
		return BadColor.Sprint(d)
	default:
		return NeutralColor.Sprint(d)
	}
}

// GetImpactLabel returns a colored label for a bucket impact.
func GetImpactLabel(i schema.Impact) string {
	switch i {
	case schema.BestImpact:
		return GoodColor.Sprint(i)
	case schema.WorstImpact:
		return BadColor.Sprint(i)
	case schema.ModerateImpact:
		return NeutralColor.Sprint(i)
	default:
		return MutedColor.Sprint(NotAvailable)
	}
}

// GetPriorityLabel returns a colored label for a recommendation priority.
func GetPriorityLabel(p schema.Priority) string {
	switch p {
	case schema.HighPriority:
		return BadColor.Sprint(p)
	case schema.MediumPriority:
		return CautionColor.Sprint(p)
	default:
		return NeutralColor.Sprint(p)
	}
}

// GetAssessmentLabel returns a colored label for a metric assessment.
func GetAssessmentLabel(a schema.Assessment) string {
	switch a {
	case schema.GoodAssessment:
		return GoodColor.Sprint(a)
	case schema.ConcernAssessment:
		return BadColor.Sprint(a)
	default:
		return NeutralColor.Sprint(a)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pulsecheck_cache.db"
	}
	return filepath.Join(homeDir, ".pulsecheck_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pulsecheck_history.db"
	}
	return filepath.Join(homeDir, ".pulsecheck_history.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
