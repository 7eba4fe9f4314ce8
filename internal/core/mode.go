// Package core is the orchestration layer.  It composes the listener,
// the probe cache, the population scheduler, the response templates
// and the serving loop into one runnable mode, and provides a builder
// that assembles it from a Config.
//
// Architecture layers (bottom → top):
//
//	scanner, cache, response  →  session  →  server  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete, runnable server.  A Mode owns every resource it
// was built with and releases them when Run returns.
type Mode interface {
	Run(ctx context.Context) error
	Close() error
}
