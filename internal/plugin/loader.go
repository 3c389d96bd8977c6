package plugin

import (
	"context"
	"os"
	"path/filepath"
	goplugin "plugin"
	"strings"

	"github.com/nexuscore/nexus/internal/apperr"
)

// newPluginSymbol is the well-known exported symbol name every .so plugin
// must provide.
const newPluginSymbol = "NewPlugin"

// Opener resolves a plugin entry point (a path or a registered name) into a
// Plugin instance. It exists as an interface so tests can register
// in-process factories instead of building real .so files.
type Opener interface {
	Open(path string) (Plugin, error)
}

// FileOpener loads plugins the real way: plugin.Open on a .so file,
// looking up the NewPlugin symbol and calling it.
type FileOpener struct{}

func (FileOpener) Open(path string) (Plugin, error) {
	lib, err := goplugin.Open(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginIsolation, err, "opening plugin at "+path)
	}
	sym, err := lib.Lookup(newPluginSymbol)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginIsolation, err, "plugin "+path+" does not export NewPlugin")
	}
	ctor, ok := sym.(func() (Plugin, error))
	if !ok {
		return nil, apperr.Newf(apperr.KindPluginIsolation, "plugin %s's NewPlugin has the wrong signature", path)
	}
	p, err := ctor()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginIsolation, err, "constructing plugin "+path)
	}
	return p, nil
}

// RegistryOpener resolves plugins from an in-process map of factories,
// registered under a symbolic "path" instead of a filesystem one. This is
// how built-in/test plugins are wired without a real .so on disk.
type RegistryOpener struct {
	factories map[string]NewPluginFunc
}

// NewRegistryOpener builds an opener over the given factories.
func NewRegistryOpener(factories map[string]NewPluginFunc) *RegistryOpener {
	if factories == nil {
		factories = make(map[string]NewPluginFunc)
	}
	return &RegistryOpener{factories: factories}
}

// Register adds or replaces a factory for path.
func (o *RegistryOpener) Register(path string, ctor NewPluginFunc) {
	o.factories[path] = ctor
}

func (o *RegistryOpener) Open(path string) (Plugin, error) {
	ctor, ok := o.factories[path]
	if !ok {
		return nil, apperr.Newf(apperr.KindPluginIsolation, "no registered plugin factory for %q", path)
	}
	return ctor()
}

// Autoload scans dir for "*.so" files and loads each, keyed by its file
// name with the extension stripped. enabled/disabled filter the discovered
// ids: a non-empty enabled list admits only those ids; disabled always
// excludes, regardless of enabled. A plugin that fails to load is reported
// to the caller in the returned error slice and does not block the
// remaining ones — autoload is a best-effort convenience for
// plugins.directory/autoload, not a transactional batch.
func (m *Host) Autoload(ctx context.Context, dir string, enabled, disabled []string) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []error{apperr.Wrap(apperr.KindPluginIsolation, err, "reading plugin directory "+dir)}
	}

	allow := toSet(enabled)
	deny := toSet(disabled)

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".so") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".so")
		if deny[id] {
			continue
		}
		if len(allow) > 0 && !allow[id] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, _, err := m.Load(ctx, id, path, ""); err != nil {
			errs = append(errs, apperr.Wrap(apperr.KindPluginIsolation, err, "autoloading plugin "+id))
		}
	}
	return errs
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
