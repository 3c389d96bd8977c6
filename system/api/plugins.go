package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexuscore/nexus/internal/plugin"
	"github.com/nexuscore/nexus/system/core"
)

type pluginHandlers struct {
	host   *plugin.Host
	engine *core.Engine
}

func (p *pluginHandlers) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"loaded": p.host.Loaded()})
}

func (p *pluginHandlers) load(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Path  string `json:"path"`
		Level string `json:"level"`
	}
	if err := decodeBody(r, &req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	pluginName, pluginVersion, err := p.host.Load(r.Context(), name, req.Path, plugin.Level(req.Level))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": pluginName, "version": pluginVersion})
}

func (p *pluginHandlers) unload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := p.host.Unload(r.Context(), name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unloaded"})
}

// enable adds name to plugins.enabled and removes it from plugins.disabled,
// so the next autoload scan (on restart, or a future directory rescan)
// admits it; it does not itself load an already-running process's plugin.
func (p *pluginHandlers) enable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := p.setPluginListMembership(name, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
}

// disable adds name to plugins.disabled and removes it from
// plugins.enabled; the autoload filter always excludes a disabled id
// regardless of the enabled list.
func (p *pluginHandlers) disable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := p.setPluginListMembership(name, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}

func (p *pluginHandlers) setPluginListMembership(name string, enable bool) error {
	svc := p.engine.Config.Service()
	schema, err := svc.Schema()
	if err != nil {
		return err
	}

	enabled := removeFromList(schema.Plugins.Enabled, name)
	disabled := removeFromList(schema.Plugins.Disabled, name)
	if enable {
		enabled = append(enabled, name)
	} else {
		disabled = append(disabled, name)
	}

	if err := svc.Set("plugins.enabled", toAnySlice(enabled)); err != nil {
		return err
	}
	return svc.Set("plugins.disabled", toAnySlice(disabled))
}

func removeFromList(items []string, target string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != target {
			out = append(out, item)
		}
	}
	return out
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
