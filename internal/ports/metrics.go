package ports

import "time"

// MetricsSink is the injected counter surface. Implementations must be
// safe for concurrent use.
type MetricsSink interface {
	ScanStarted()
	ScanFailed(reason string)
	AllergensMatched(n int)
	ScanDuration(d time.Duration)
}
