// Package api implements the REST surface (C9's external interface):
// authentication, user management, system config/status, plugin control,
// and monitoring, mounted on go-chi/chi/v5.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nexuscore/nexus/pkg/metrics"
	"github.com/nexuscore/nexus/pkg/version"
	"github.com/nexuscore/nexus/system/core"
)

// apiResponse is the uniform response envelope for every handler.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

// Handler wires every route onto a chi router, ready to mount under an
// http.Server.
type Handler struct {
	engine *core.Engine
	auth   *authHandlers
	users  *userHandlers
	system *systemHandlers
	plugin *pluginHandlers
	mon    *monitoringHandlers
}

// New builds the REST handler set from an assembled application core.
func New(engine *core.Engine) *Handler {
	sec := engine.Security.Service()
	return &Handler{
		engine: engine,
		auth:   &authHandlers{sec: sec},
		users:  &userHandlers{sec: sec},
		system: &systemHandlers{engine: engine},
		plugin: &pluginHandlers{host: engine.PluginHost, engine: engine},
		mon:    &monitoringHandlers{mon: engine.Monitor.Monitor()},
	}
}

// Router builds the full chi.Router: request id/recover/logging
// middleware, rate limiting, then the documented route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Logger)
	r.Use(metrics.InstrumentHandler)
	r.Use(h.cors())
	r.Use(h.rateLimit())

	r.Get("/", h.root)
	r.Get("/health", h.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/token", h.auth.token)
			r.Post("/refresh", h.auth.refresh)
			r.Post("/revoke", h.auth.revoke)
			r.With(h.authenticate).Get("/me", h.auth.me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.authenticate)
			r.With(h.authorize("users", "view")).Get("/", h.users.list)
			r.With(h.authorize("users", "manage")).Post("/", h.users.create)
			r.With(h.authorize("users", "view")).Get("/{id}", h.users.get)
			r.With(h.authorize("users", "manage")).Put("/{id}", h.users.update)
			r.With(h.authorize("users", "manage")).Delete("/{id}", h.users.delete)
		})

		r.Route("/system", func(r chi.Router) {
			r.Use(h.authenticate)
			r.With(h.authorize("system", "view")).Get("/status", h.system.status)
			r.With(h.authorize("system", "view")).Get("/config/*", h.system.getConfig)
			r.With(h.authorize("system", "manage")).Put("/config/*", h.system.putConfig)
		})

		r.Route("/plugins", func(r chi.Router) {
			r.Use(h.authenticate)
			r.With(h.authorize("plugins", "view")).Get("/", h.plugin.list)
			r.With(h.authorize("plugins", "manage")).Post("/{name}/load", h.plugin.load)
			r.With(h.authorize("plugins", "manage")).Post("/{name}/unload", h.plugin.unload)
			r.With(h.authorize("plugins", "manage")).Post("/{name}/enable", h.plugin.enable)
			r.With(h.authorize("plugins", "manage")).Post("/{name}/disable", h.plugin.disable)
		})

		r.Route("/monitoring", func(r chi.Router) {
			r.Use(h.authenticate)
			r.With(h.authorize("system", "view")).Get("/alerts", h.mon.alerts)
			r.With(h.authorize("system", "view")).Get("/diagnostics", h.mon.diagnostics)
		})
	})

	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     "nexus",
		"version":  version.Version,
		"build":    version.Get(),
		"docs_url": "/docs",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "healthy": true})
}
