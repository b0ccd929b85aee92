package metrics

import "time"

// Noop satisfies ports.MetricsSink for tests and metrics-disabled runs.
type Noop struct{}

func (Noop) ScanStarted()             {}
func (Noop) ScanFailed(string)        {}
func (Noop) AllergensMatched(int)     {}
func (Noop) ScanDuration(time.Duration) {}
