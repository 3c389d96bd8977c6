package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nexuscore/nexus/system/core"
)

type systemHandlers struct {
	engine *core.Engine
}

func (s *systemHandlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

// getConfig reads a dotted config path from the trailing wildcard segment
// of /system/config/*, e.g. GET /system/config/api/port -> "api.port".
func (s *systemHandlers) getConfig(w http.ResponseWriter, r *http.Request) {
	path := configPathFromWildcard(r)
	if path == "" {
		writeJSON(w, http.StatusOK, s.engine.Config.Service().Snapshot())
		return
	}
	value, ok := s.engine.Config.Service().Get(path)
	if !ok {
		writeError(w, http.StatusNotFound, "no such config path: "+path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": value})
}

func (s *systemHandlers) putConfig(w http.ResponseWriter, r *http.Request) {
	path := configPathFromWildcard(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "config path is required")
		return
	}
	var req struct {
		Value any `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.Config.Service().Set(path, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func configPathFromWildcard(r *http.Request) string {
	wildcard := chi.URLParam(r, "*")
	return strings.ReplaceAll(strings.Trim(wildcard, "/"), "/", ".")
}
