package repository

// Resolution represents the bucket size stored series are queried at.
// Energy-market data arrives hourly; daily buckets aggregate it.
type Resolution string

const (
	ResHourly Resolution = "1h"
	ResDaily  Resolution = "1d"
)

// IsValidResolution returns true if res is a supported resolution.
func IsValidResolution(res Resolution) bool {
	switch res {
	case ResHourly, ResDaily:
		return true
	default:
		return false
	}
}

// DefaultResolution returns the default resolution.
func DefaultResolution() Resolution { return ResHourly }

// NormalizeResolution converts a raw string to a valid resolution (or default).
func NormalizeResolution(s string) Resolution {
	if s == "" {
		return DefaultResolution()
	}
	res := Resolution(s)
	if IsValidResolution(res) {
		return res
	}
	return DefaultResolution()
}
