package scoring

import "strings"

// Scale names the range a raw score was expressed in.
type Scale string

const (
	// ScalePercent is the canonical 0-100 range.
	ScalePercent Scale = "percent"
	// ScaleTen is the 1-10 range produced by note extraction and older imports.
	ScaleTen Scale = "ten"
)

// ParseScale maps loose labels ("10", "1-10", "100", "percent") to a Scale.
// Unknown labels read as ScalePercent.
func ParseScale(label string) Scale {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "10", "1-10", "0-10", "ten":
		return ScaleTen
	default:
		return ScalePercent
	}
}

// NormalizeScore converts value to the canonical 0-100 scale and clamps it.
func NormalizeScore(value float64, scale Scale) float64 {
	if scale == ScaleTen {
		value *= 10
	}
	return clampPercent(value)
}

// Urgency labels shown next to a lead.
const (
	UrgencyHigh   = "HIGH"
	UrgencyMedium = "MEDIUM"
	UrgencyLow    = "LOW"
)

// UrgencyLabel buckets a numeric urgency.
func UrgencyLabel(urgency float64) string {
	switch {
	case urgency >= 70:
		return UrgencyHigh
	case urgency >= 40:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
