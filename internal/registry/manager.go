// Package registry implements the manager registry and lifecycle engine
// (C8): an arena-and-index DAG of named components with dependency-ordered
// initialize-all and reverse-ordered shutdown-all.
package registry

import "context"

// Manager is the one capability interface the registry is polymorphic over.
// Component-specific behavior lives behind narrower interfaces; the registry
// only ever needs this much to drive the lifecycle.
type Manager interface {
	Name() string
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Status() Status
}

// Status is a manager's self-reported health snapshot.
type Status struct {
	Initialized bool           `json:"initialized"`
	Healthy     bool           `json:"healthy"`
	Error       string         `json:"error,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}
