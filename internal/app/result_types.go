package app

import "solarstock/internal/core"

// InvoiceResult is an invoice with its extracted lines.
type InvoiceResult struct {
	Invoice core.Invoice       `json:"invoice"`
	Lines   []core.InvoiceLine `json:"lines"`
}

type InvoiceListResult struct {
	Invoices []core.Invoice `json:"invoices"`
}

type ValidationResult struct {
	MappedLines      int `json:"mapped_lines"`
	CreatedMaterials int `json:"created_materials"`
	SkippedDecisions int `json:"skipped_decisions"`
}

type ConfirmResult struct {
	MovementsCreated int `json:"movements_created"`
	SkippedLines     int `json:"skipped_lines"`
}

type MaterialListResult struct {
	Materials []core.Material `json:"materials"`
}

type MovementListResult struct {
	Movements []core.StockMovement `json:"movements"`
}

type ProjectListResult struct {
	Projects []core.Project `json:"projects"`
}
