package web

import (
	"io"
	"net/http"

	"solarstock/internal/app"
	"solarstock/internal/core"
)

// uploadMemoryLimit is the in-memory threshold for multipart parsing; larger
// parts spill to disk. The document itself is capped by core.MaxUploadBytes.
const uploadMemoryLimit = 4 << 20

func (h *Handler) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, core.MaxUploadBytes+uploadMemoryLimit)
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, r, "expected multipart form with a 'file' part", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "missing 'file' part", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, core.MaxUploadBytes+1))
	if err != nil {
		writeError(w, r, "failed to read upload", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.UploadInvoice(r.Context(), app.UploadInvoiceRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListInvoices(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getInvoiceRawText(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	raw, err := h.svc.GetInvoiceRawText(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"raw_text": raw})
}

func (h *Handler) validateInvoiceLines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Decisions []core.LineDecision `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.ValidateInvoiceLines(r.Context(), app.ValidateLinesRequest{
		InvoiceID: id,
		Decisions: body.Decisions,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) confirmInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	strict := r.URL.Query().Get("strict") == "true"
	if r.ContentLength > 0 {
		var body struct {
			Strict bool `json:"strict"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		strict = strict || body.Strict
	}
	result, err := h.svc.ConfirmInvoice(r.Context(), id, strict)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) remapInvoiceLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathInt(w, r, "itemID")
	if !ok {
		return
	}
	var body struct {
		MaterialID int `json:"material_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.MaterialID <= 0 {
		writeError(w, r, "material_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.RemapInvoiceLine(r.Context(), id, itemID, body.MaterialID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "remapped"})
}
