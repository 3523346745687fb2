package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"solarstock/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	// File upload: body limit is managed inside the handler (multipart).
	r.Post("/api/invoices/upload", h.uploadInvoice)

	// All other endpoints: 1 MB body limit to prevent unbounded request abuse.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Invoices
		r.Get("/api/invoices", h.listInvoices)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Get("/api/invoices/{id}/raw-text", h.getInvoiceRawText)
		r.Post("/api/invoices/{id}/validate-items", h.validateInvoiceLines)
		r.Post("/api/invoices/{id}/confirm", h.confirmInvoice)
		r.Put("/api/invoices/{id}/items/{itemID}", h.remapInvoiceLine)

		// Materials
		r.Get("/api/materials", h.listMaterials)
		r.Post("/api/materials", h.createMaterial)
		r.Get("/api/materials/low-stock", h.lowStockMaterials)
		r.Get("/api/materials/{id}", h.getMaterial)
		r.Put("/api/materials/{id}", h.updateMaterial)
		r.Delete("/api/materials/{id}", h.deleteMaterial)
		r.Get("/api/materials/{id}/movements", h.materialMovements)

		// Stock ledger
		r.Get("/api/stock/movements", h.listStockMovements)
		r.Post("/api/stock/movements", h.recordStockMovement)

		// Projects
		r.Get("/api/projects", h.listProjects)
		r.Post("/api/projects", h.createProject)
		r.Get("/api/projects/{id}", h.getProject)
		r.Put("/api/projects/{id}", h.updateProject)
		r.Delete("/api/projects/{id}", h.deleteProject)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes a request body, rejecting unknown fields and oversized
// payloads with the right status codes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, "request body too large", "BODY_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathInt extracts a positive integer URL parameter or writes a 400.
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
