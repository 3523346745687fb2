package web

import (
	"net/http"

	"solarstock/internal/app"
	"solarstock/internal/core"
)

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListMaterials(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	material, err := h.svc.GetMaterial(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, material)
}

func (h *Handler) createMaterial(w http.ResponseWriter, r *http.Request) {
	var in core.MaterialInput
	if !decodeJSON(w, r, &in) {
		return
	}
	material, err := h.svc.CreateMaterial(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, material)
}

func (h *Handler) updateMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var in core.MaterialInput
	if !decodeJSON(w, r, &in) {
		return
	}
	material, err := h.svc.UpdateMaterial(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, material)
}

func (h *Handler) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMaterial(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (h *Handler) lowStockMaterials(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LowStockMaterials(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) materialMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	// 404 for movements of a material that does not exist.
	if _, err := h.svc.GetMaterial(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	result, err := h.svc.ListStockMovements(r.Context(), app.MovementListRequest{
		MaterialID: id,
		Limit:      queryInt(r, "limit"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
