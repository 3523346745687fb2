package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the processing state of an ingested invoice. Transitions
// only move forward: PENDING -> PARSED -> VALIDATED -> CONFIRMED.
type InvoiceStatus string

const (
	StatusPending   InvoiceStatus = "PENDING"
	StatusParsed    InvoiceStatus = "PARSED"
	StatusValidated InvoiceStatus = "VALIDATED"
	StatusConfirmed InvoiceStatus = "CONFIRMED"
)

// MovementKind classifies a stock ledger entry.
type MovementKind string

const (
	MovementInvoiceIn  MovementKind = "INVOICE_IN"
	MovementManualIn   MovementKind = "MANUAL_IN"
	MovementManualOut  MovementKind = "MANUAL_OUT"
	MovementProjectOut MovementKind = "PROJECT_OUT"
	MovementAdjustment MovementKind = "ADJUSTMENT"
)

type Material struct {
	ID           int              `json:"id"`
	SKU          *string          `json:"sku,omitempty"`
	Name         string           `json:"name"`
	Category     *string          `json:"category,omitempty"`
	Unit         string           `json:"unit"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	MinimumStock decimal.Decimal  `json:"minimum_stock"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type Invoice struct {
	ID            int              `json:"id"`
	Supplier      *string          `json:"supplier,omitempty"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	InvoiceDate   *string          `json:"invoice_date,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	Status        InvoiceStatus    `json:"status"`
	Filename      *string          `json:"filename,omitempty"`
	FileFormat    *string          `json:"file_format,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type InvoiceLine struct {
	ID                  int              `json:"id"`
	InvoiceID           int              `json:"invoice_id"`
	MaterialID          *int             `json:"material_id,omitempty"`
	SuggestedMaterialID *int             `json:"suggested_material_id,omitempty"`
	MatchConfidence     *float64         `json:"match_confidence,omitempty"`
	MatchKind           *string          `json:"match_kind,omitempty"`
	SKURaw              *string          `json:"sku_raw,omitempty"`
	Description         *string          `json:"description,omitempty"`
	Quantity            decimal.Decimal  `json:"quantity"`
	Unit                *string          `json:"unit,omitempty"`
	UnitPrice           *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice          *decimal.Decimal `json:"total_price,omitempty"`
	TaxPercent          *decimal.Decimal `json:"tax_percent,omitempty"`
}

type StockMovement struct {
	ID            int             `json:"id"`
	MaterialID    int             `json:"material_id"`
	Change        decimal.Decimal `json:"change"`
	Kind          MovementKind    `json:"kind"`
	ReferenceType *string         `json:"reference_type,omitempty"`
	ReferenceID   *int            `json:"reference_id,omitempty"`
	ProjectID     *int            `json:"project_id,omitempty"`
	Note          *string         `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	ClientName  *string   `json:"client_name,omitempty"`
	SiteAddress *string   `json:"site_address,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
