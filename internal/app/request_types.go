package app

import (
	"github.com/shopspring/decimal"

	"solarstock/internal/core"
)

// UploadInvoiceRequest carries one uploaded document.
type UploadInvoiceRequest struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ValidateLinesRequest is a batch of manual mapping decisions for one
// invoice.
type ValidateLinesRequest struct {
	InvoiceID int
	Decisions []core.LineDecision
}

// RecordMovementRequest is a manual stock change: goods received outside an
// invoice, consumption on a project site, or a correction after a physical
// count.
type RecordMovementRequest struct {
	MaterialID int
	Change     decimal.Decimal
	Kind       string
	ProjectID  *int
	Note       *string
}

// MovementListRequest narrows the movement listing. Zero values mean no
// filtering.
type MovementListRequest struct {
	MaterialID int
	ProjectID  int
	Kind       string
	Limit      int
}
