package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexuscore/nexus/internal/security"
)

type userHandlers struct {
	sec *security.Service
}

func (u *userHandlers) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, u.sec.ListUsers())
}

func (u *userHandlers) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, ok := u.sec.GetUser(id)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (u *userHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string          `json:"username"`
		Email    string          `json:"email"`
		Password string          `json:"password"`
		Roles    []security.Role `json:"roles"`
		Metadata map[string]any  `json:"metadata"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := u.sec.CreateUser(security.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (u *userHandlers) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Username *string         `json:"username"`
		Email    *string         `json:"email"`
		Password *string         `json:"password"`
		Roles    []security.Role `json:"roles"`
		Active   *bool           `json:"active"`
		Metadata map[string]any  `json:"metadata"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := u.sec.UpdateUser(r.Context(), id, security.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
		Active:   req.Active,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (u *userHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := u.sec.DeleteUser(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
