package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"solarstock/internal/app"
)

func (h *Handler) listStockMovements(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListStockMovements(r.Context(), app.MovementListRequest{
		MaterialID: queryInt(r, "material_id"),
		ProjectID:  queryInt(r, "project_id"),
		Kind:       r.URL.Query().Get("kind"),
		Limit:      queryInt(r, "limit"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) recordStockMovement(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaterialID int             `json:"material_id"`
		Change     decimal.Decimal `json:"change"`
		Kind       string          `json:"kind"`
		ProjectID  *int            `json:"project_id"`
		Note       *string         `json:"note"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.MaterialID <= 0 {
		writeError(w, r, "material_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	movement, err := h.svc.RecordStockMovement(r.Context(), app.RecordMovementRequest{
		MaterialID: body.MaterialID,
		Change:     body.Change,
		Kind:       body.Kind,
		ProjectID:  body.ProjectID,
		Note:       body.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, movement)
}
