package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/discomfort/schema"
	"go.uber.org/zap"
)

// Color variables for console output.
var (
	SevereColor      = color.New(color.FgRed, color.Bold)     // SevereColor represents standard danger.
	HighColor        = color.New(color.FgMagenta, color.Bold) // HighColor represents strong, distinct warning.
	ModerateColor    = color.New(color.FgYellow)              // ModerateColor represents standard caution, not bold.
	ComfortableColor = color.New(color.FgGreen)               // ComfortableColor represents a pleasant segment.
	NeutralColor     = color.New(color.FgCyan)                // NeutralColor represents informational / low-priority signal.
)

// GetColorLabel returns a colored discomfort level for console output (table).
// It uses schema.GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(score float64) string {
	text := schema.GetPlainLabel(score)

	switch text {
	case schema.SevereLevel:
		return SevereColor.Sprint(text)
	case schema.HighLevel:
		return HighColor.Sprint(text)
	case schema.ModerateLevel:
		return ModerateColor.Sprint(text)
	default:
		return ComfortableColor.Sprint(text)
	}
}

// GetTradeoffColorLabel returns a colored trade-off strength for console output.
func GetTradeoffColorLabel(mtor float64) string {
	text := schema.GetTradeoffLabel(mtor)

	switch text {
	case schema.StrongTradeoff:
		return ComfortableColor.Sprint(text)
	case schema.FairTradeoff:
		return ModerateColor.Sprint(text)
	case schema.WeakTradeoff:
		return HighColor.Sprint(text)
	default:
		return NeutralColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	_ = zap.L().Sync()
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning with its cause.
func LogWarn(msg string, err error) {
	zap.L().Warn(msg, zap.Error(err))
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".discomfort_cache.db"
	}
	return filepath.Join(homeDir, ".discomfort_cache.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".discomfort_runs.db"
	}
	return filepath.Join(homeDir, ".discomfort_runs.db")
}

// TruncateLabel truncates a label to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for the prefix and one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return label
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
