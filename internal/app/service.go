package app

import (
	"context"

	"solarstock/internal/core"
)

// ApplicationService is the single interface UI adapters call. It decouples
// presentation from business logic: implementations contain no HTTP types
// and no display logic of any kind.
type ApplicationService interface {
	// UploadInvoice ingests an invoice document: detects the format, runs
	// the matching extractor, suggests catalog materials per line and
	// stores the result as a PARSED invoice.
	UploadInvoice(ctx context.Context, req UploadInvoiceRequest) (*InvoiceResult, error)

	// ListInvoices returns invoices newest first, optionally filtered by
	// status.
	ListInvoices(ctx context.Context, status string) (*InvoiceListResult, error)

	// GetInvoice returns an invoice with its extracted lines.
	GetInvoice(ctx context.Context, id int) (*InvoiceResult, error)

	// GetInvoiceRawText returns the stored extraction source for
	// diagnosing bad parses.
	GetInvoiceRawText(ctx context.Context, id int) (string, error)

	// ValidateInvoiceLines applies manual line-to-material decisions,
	// creating new catalog materials where requested.
	ValidateInvoiceLines(ctx context.Context, req ValidateLinesRequest) (*ValidationResult, error)

	// ConfirmInvoice books stock movements for all mapped lines and
	// finalizes the invoice. Strict mode refuses unmapped lines.
	ConfirmInvoice(ctx context.Context, id int, strict bool) (*ConfirmResult, error)

	// RemapInvoiceLine re-points one line at a different material before
	// confirmation.
	RemapInvoiceLine(ctx context.Context, invoiceID, lineID, materialID int) error

	// Material catalog.
	ListMaterials(ctx context.Context) (*MaterialListResult, error)
	GetMaterial(ctx context.Context, id int) (*core.Material, error)
	CreateMaterial(ctx context.Context, in core.MaterialInput) (*core.Material, error)
	UpdateMaterial(ctx context.Context, id int, in core.MaterialInput) (*core.Material, error)
	DeleteMaterial(ctx context.Context, id int) error
	LowStockMaterials(ctx context.Context) (*MaterialListResult, error)

	// Stock ledger.
	RecordStockMovement(ctx context.Context, req RecordMovementRequest) (*core.StockMovement, error)
	ListStockMovements(ctx context.Context, req MovementListRequest) (*MovementListResult, error)

	// Projects.
	ListProjects(ctx context.Context) (*ProjectListResult, error)
	GetProject(ctx context.Context, id int) (*core.Project, error)
	CreateProject(ctx context.Context, in core.ProjectInput) (*core.Project, error)
	UpdateProject(ctx context.Context, id int, in core.ProjectInput) (*core.Project, error)
	DeleteProject(ctx context.Context, id int) error
}
