// Package stacktrace trims raw goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" frames found in
// a debug.Stack dump, in call order.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok {
			continue
		}
		idx := strings.Index(rest, ".go:")
		if idx == -1 {
			continue
		}
		frame, _, _ := strings.Cut(rest, " ")
		paths = append(paths, "internal/"+frame)
	}
	return paths
}
