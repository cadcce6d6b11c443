// Package output handles formatting CLI output as table, JSON, or compact.
package output

// Format represents an output format.
type Format int

const (
	// FormatAuto uses the default format (table).
	FormatAuto Format = iota
	// FormatJSON outputs JSON.
	FormatJSON
	// FormatTable outputs a human-readable table.
	FormatTable
	// FormatCompact outputs one-line-per-record compact format.
	FormatCompact
)

// Detect returns the appropriate format based on flags and the configured
// default. Flags win; the default is table when nothing is set.
func Detect(jsonFlag, compactFlag bool, configured string) Format {
	if jsonFlag {
		return FormatJSON
	}
	if compactFlag {
		return FormatCompact
	}

	switch configured {
	case "json":
		return FormatJSON
	case "compact", "oneline":
		return FormatCompact
	}

	return FormatTable
}
