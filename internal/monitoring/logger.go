// Package monitoring carries the diagnostic logger shared by the simulator,
// the frame loader and the clustering animator.
package monitoring

import (
	"log"
	"sort"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Diagnostic categories bumped by the core packages.
const (
	DiagMalformedRecord = "malformed_record"
	DiagMissingSource   = "missing_source"
	DiagSinkError       = "sink_error"
	DiagRenderError     = "render_error"
)

var (
	diagMu     sync.Mutex
	diagCounts = make(map[string]int)
)

// Diagf logs a best-effort diagnostic through Logf and counts it under category.
func Diagf(category, format string, v ...interface{}) {
	diagMu.Lock()
	diagCounts[category]++
	diagMu.Unlock()
	Logf(format, v...)
}

// DiagCount returns how many diagnostics were recorded for category.
func DiagCount(category string) int {
	diagMu.Lock()
	defer diagMu.Unlock()
	return diagCounts[category]
}

// DiagCategories lists the categories seen so far, sorted.
func DiagCategories() []string {
	diagMu.Lock()
	defer diagMu.Unlock()
	out := make([]string, 0, len(diagCounts))
	for k := range diagCounts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ResetDiag clears all diagnostic counters.
func ResetDiag() {
	diagMu.Lock()
	diagCounts = make(map[string]int)
	diagMu.Unlock()
}
