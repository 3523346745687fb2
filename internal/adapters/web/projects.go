package web

import (
	"net/http"

	"solarstock/internal/core"
)

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProjects(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	project, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, project)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var in core.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, project)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var in core.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	project, err := h.svc.UpdateProject(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, project)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}
