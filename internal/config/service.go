package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nexuscore/nexus/internal/apperr"
)

// ChangeListener is notified synchronously, on the calling goroutine, for
// any mutation whose changed key equals the registered prefix or is a
// strict descendant of it.
type ChangeListener func(key string, oldValue, newValue any)

type listenerEntry struct {
	id     string
	prefix string
	fn     ChangeListener
}

// Service is the config manager (C1): layered load, dotted-path
// get/set, and prefix-scoped change notification.
type Service struct {
	mu        sync.RWMutex
	tree      map[string]any
	listeners []listenerEntry
	envPrefix string

	// OnChange, if set, is invoked after every successful Set — wired by
	// the application core to also publish system/config_changed on the
	// event bus without this package depending on the event bus.
	OnChange func(key string, oldValue, newValue any)
}

// Options configures Load.
type Options struct {
	FilePath  string
	EnvPrefix string
	// EnvFiles are .env files loaded into the process environment before
	// the environment overlay runs. Empty means the default ".env" in the
	// working directory, loaded best-effort.
	EnvFiles []string
	Environ  []string // defaults to os.Environ(); overridable for tests
}

// Load builds the layered configuration: schema defaults, optional file
// overlay (YAML or JSON by extension), then a .env overlay into the
// process environment, then the environment overlay itself, then a
// full-tree validation. An empty or nonexistent file path is not an error
// and simply yields the defaults; an unsupported extension is.
func Load(opts Options) (*Service, error) {
	tree := Defaults()

	if opts.FilePath != "" {
		merged, err := loadFile(opts.FilePath, tree)
		if err != nil {
			return nil, err
		}
		tree = merged
	}

	environ := opts.Environ
	if environ == nil {
		// godotenv never overrides variables already exported, so the
		// real environment still wins over the .env file. A missing file
		// is not an error.
		_ = godotenv.Load(opts.EnvFiles...)
		environ = os.Environ()
	}
	tree, _ = envOverlay(tree, opts.EnvPrefix, environ)

	if err := validateTree(tree); err != nil {
		return nil, err
	}

	return &Service{
		tree:      tree,
		envPrefix: opts.EnvPrefix,
	}, nil
}

func loadFile(path string, base map[string]any) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, apperr.Wrap(apperr.KindConfiguration, err, "read config file")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return base, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	var overlay map[string]any
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, apperr.Wrap(apperr.KindConfiguration, err, "parse YAML config file")
		}
	case ".json":
		if err := yamlUnmarshalJSONCompatible(data, &overlay); err != nil {
			return nil, apperr.Wrap(apperr.KindConfiguration, err, "parse JSON config file")
		}
	default:
		return nil, apperr.Newf(apperr.KindConfiguration, "unsupported config file extension %q", ext)
	}

	overlay = normalizeYAMLMap(overlay)
	return deepMerge(base, overlay), nil
}

// yamlUnmarshalJSONCompatible parses JSON via the YAML decoder (YAML is a
// JSON superset) so both file formats share one merge path.
func yamlUnmarshalJSONCompatible(data []byte, out *map[string]any) error {
	return yaml.Unmarshal(data, out)
}

// normalizeYAMLMap converts the map[string]interface{} nesting gopkg.in/yaml.v3
// produces (which may yield map[string]interface{} already in v3, unlike v2's
// map[interface{}]interface{}) into the form deepMerge expects; kept as an
// explicit pass for clarity and as a seam if a map[interface{}]interface{}
// ever surfaces from a nested anchor.
func normalizeYAMLMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeYAMLValue(v)
	}
	return out
}

func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeYAMLMap(val)
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, vv := range val {
			converted[keyToString(k)] = normalizeYAMLValue(vv)
		}
		return converted
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAMLValue(item)
		}
		return out
	default:
		return v
	}
}

func keyToString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return ""
}

// Get reads a dotted path. ok is false if the path is absent, in which case
// the caller's default should be used.
func (s *Service) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(s.tree, path)
}

// Set writes a value at a dotted path and re-validates the whole tree. On
// validation failure, the tree is left exactly as it was before the call.
func (s *Service) Set(path string, value any) error {
	s.mu.Lock()

	oldValue, _ := get(s.tree, path)
	candidate := cloneMap(s.tree)
	candidate = set(candidate, path, value)

	if err := validateTree(candidate); err != nil {
		s.mu.Unlock()
		return err
	}

	s.tree = candidate
	onChange := s.OnChange
	listeners := s.matchingListeners(path)
	s.mu.Unlock()

	for _, l := range listeners {
		s.notify(l, path, oldValue, value)
	}
	if onChange != nil {
		onChange(path, oldValue, value)
	}

	return nil
}

func (s *Service) matchingListeners(path string) []ChangeListener {
	var out []ChangeListener
	for _, entry := range s.listeners {
		if entry.prefix == path || strings.HasPrefix(path, entry.prefix+".") {
			out = append(out, entry.fn)
		}
	}
	return out
}

// notify invokes fn, catching (via recover) and logging (via the standard
// log package, since this package has no logger dependency) any panic so a
// misbehaving listener cannot abort the mutation that already succeeded.
func (s *Service) notify(fn ChangeListener, key string, oldValue, newValue any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("config: listener for %q panicked: %v", key, r)
		}
	}()
	fn(key, oldValue, newValue)
}

// RegisterListener registers fn against prefix under listenerID. Re-
// registering the same (listenerID, prefix) pair replaces the callback in
// place rather than adding a duplicate — the same idiomatic proxy for
// callback-equality used by the event bus's Subscribe, since Go cannot
// compare closures. This gives "register; register; set ⇒ exactly one
// callback" and "register; unregister; set ⇒ no callback" for a fixed
// listenerID.
func (s *Service) RegisterListener(listenerID, prefix string, fn ChangeListener) (unregister func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.listeners {
		if e.id == listenerID && e.prefix == prefix {
			s.listeners[i].fn = fn
			return func() { s.Unregister(listenerID, prefix) }
		}
	}

	s.listeners = append(s.listeners, listenerEntry{id: listenerID, prefix: prefix, fn: fn})
	return func() { s.Unregister(listenerID, prefix) }
}

// Unregister removes the listener registered under (listenerID, prefix), if
// any.
func (s *Service) Unregister(listenerID, prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.listeners {
		if e.id == listenerID && e.prefix == prefix {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Snapshot returns a deep copy of the full tree, safe for the caller to
// mutate without affecting the service (copy-on-write read semantics).
func (s *Service) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMap(s.tree)
}

// Schema returns the current tree decoded into the typed Schema, for
// callers (principally the application core's wiring step) that want
// struct field access instead of dotted-path lookups.
func (s *Service) Schema() (Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toSchema(s.tree)
}
