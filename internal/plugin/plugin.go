// Package plugin implements Plugin Isolation (C7): loading/unloading
// plugins discovered via Go's plugin.Open and a well-known NewPlugin
// symbol, and invoking their methods at a chosen isolation level with
// timeout enforcement and per-(plugin, method) serialization.
package plugin

import "context"

// Level is the execution boundary chosen for a plugin invocation.
type Level string

const (
	// LevelNone runs inline. For trusted/built-in plugins only.
	LevelNone Level = "none"
	// LevelThread runs on the concurrency facility's I/O pool.
	LevelThread Level = "thread"
	// LevelProcess runs on the concurrency facility's process pool, for
	// stronger isolation.
	LevelProcess Level = "process"
)

// Plugin is the contract a loaded plugin's NewPlugin symbol must return.
// It is the Go-idiomatic replacement for reflection-based class discovery:
// instead of finding "the first class declaring name/version attributes"
// in a module, Go plugins export a single well-known constructor.
type Plugin interface {
	Name() string
	Version() string
	Invoke(ctx context.Context, method string, args map[string]any) (any, error)
}

// ShutdownHook is implemented by plugins that need to release resources on
// unload. It is optional: plugins not implementing it are simply dropped.
type ShutdownHook interface {
	Shutdown(ctx context.Context) error
}

// NewPluginFunc is the exact signature the well-known "NewPlugin" symbol
// must have for plugin.Open-based discovery to succeed.
type NewPluginFunc func() (Plugin, error)
