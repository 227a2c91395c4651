package util

import "runtime"

// OptimalPoolSize returns the worker count for CPU-bound parsing work.
//
// Formula: min(max(NumCPU * 2, 4), 32). Tree-sitter parsing crosses the CGO
// boundary, so 2x cores keeps goroutines busy while a parser blocks in C.
// The cap bounds per-parser memory on high-core machines.
func OptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < 4 {
		size = 4
	}
	if size > 32 {
		size = 32
	}
	return size
}

// OptimalPoolSizeWithOverride returns the pool size, honoring an explicit
// override when positive. Used by tests and tuning flags.
func OptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return OptimalPoolSize()
}
