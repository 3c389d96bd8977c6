package registry

import (
	"sort"
	"sync"

	"github.com/nexuscore/nexus/internal/apperr"
)

// graph is the dependency side-table: manager names point at the names they
// depend on. It never stores manager values, only the edges between their
// names, so the registry can cross-reference managers by name-lookup instead
// of cyclic pointers between manager structs.
type graph struct {
	mu   sync.RWMutex
	deps map[string][]string
}

func newGraph() *graph {
	return &graph{deps: make(map[string][]string)}
}

// addNode registers name with no dependencies yet.
func (g *graph) addNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.deps[name]; !ok {
		g.deps[name] = nil
	}
}

// removeNode drops name and its edges entirely. Used to roll back a failed
// registration.
func (g *graph) removeNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.deps, name)
}

// setDeps records name's dependency list, rejecting the change with
// apperr.KindDependency if it would introduce a cycle or reference an
// unregistered dependency. On rejection, the graph is left unchanged.
func (g *graph) setDeps(name string, dependencies []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, dep := range dependencies {
		if _, ok := g.deps[dep]; !ok {
			return apperr.Newf(apperr.KindDependency, "manager %q depends on unregistered manager %q", name, dep)
		}
	}

	prev := g.deps[name]
	g.deps[name] = dependencies

	if cyclePath := g.findCycleFrom(name); cyclePath != nil {
		g.deps[name] = prev
		return apperr.Newf(apperr.KindDependency, "registering %q would introduce a dependency cycle: %v", name, cyclePath)
	}

	return nil
}

// findCycleFrom runs a DFS from start and returns the cycle path if one
// exists, or nil if the graph (restricted to reachable nodes) is acyclic.
func (g *graph) findCycleFrom(start string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.deps))
	var path []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		color[n] = gray
		path = append(path, n)
		for _, dep := range g.deps[n] {
			switch color[dep] {
			case gray:
				// found the back edge; extract the cycle from path
				for i, p := range path {
					if p == dep {
						cycle = append([]string{}, path[i:]...)
						cycle = append(cycle, dep)
						break
					}
				}
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	visit(start)
	return cycle
}

// topoOrder returns names ordered so every dependency precedes its
// dependents, preserving the input ordering as a tie-break. Returns a
// dependency error naming the unresolved set if names contains a cycle or a
// dependency outside of names.
func (g *graph) topoOrder(names []string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	resolved := make([]string, 0, len(names))
	done := make(map[string]bool, len(names))

	for len(resolved) < len(names) {
		progressed := false

		for _, name := range names {
			if done[name] {
				continue
			}

			waiting := false
			for _, dep := range g.deps[name] {
				if !set[dep] {
					continue
				}
				if !done[dep] {
					waiting = true
					break
				}
			}
			if waiting {
				continue
			}

			resolved = append(resolved, name)
			done[name] = true
			progressed = true
		}

		if !progressed {
			var unresolved []string
			for _, name := range names {
				if !done[name] {
					unresolved = append(unresolved, name)
				}
			}
			sort.Strings(unresolved)
			return nil, apperr.Newf(apperr.KindDependency, "dependency cycle or unresolved dependency among: %v", unresolved)
		}
	}

	return resolved, nil
}
