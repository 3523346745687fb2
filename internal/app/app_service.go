package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"solarstock/internal/core"
)

type appService struct {
	pool      *pgxpool.Pool
	ledger    *core.StockLedger
	invoices  core.InvoiceService
	materials core.MaterialService
	projects  core.ProjectService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	ledger *core.StockLedger,
	invoices core.InvoiceService,
	materials core.MaterialService,
	projects core.ProjectService,
) ApplicationService {
	return &appService{
		pool:      pool,
		ledger:    ledger,
		invoices:  invoices,
		materials: materials,
		projects:  projects,
	}
}

// ── Invoices ──────────────────────────────────────────────────────────────────

func (s *appService) UploadInvoice(ctx context.Context, req UploadInvoiceRequest) (*InvoiceResult, error) {
	detail, err := s.invoices.Ingest(ctx, req.Filename, req.ContentType, req.Data)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: detail.Invoice, Lines: detail.Lines}, nil
}

func (s *appService) ListInvoices(ctx context.Context, status string) (*InvoiceListResult, error) {
	if status != "" {
		switch core.InvoiceStatus(status) {
		case core.StatusPending, core.StatusParsed, core.StatusValidated, core.StatusConfirmed:
		default:
			return nil, fmt.Errorf("unknown invoice status %q: %w", status, core.ErrInvalidInput)
		}
	}
	invoices, err := s.invoices.List(ctx, core.InvoiceStatus(status))
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) GetInvoice(ctx context.Context, id int) (*InvoiceResult, error) {
	detail, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: detail.Invoice, Lines: detail.Lines}, nil
}

func (s *appService) GetInvoiceRawText(ctx context.Context, id int) (string, error) {
	return s.invoices.RawText(ctx, id)
}

func (s *appService) ValidateInvoiceLines(ctx context.Context, req ValidateLinesRequest) (*ValidationResult, error) {
	summary, err := s.invoices.ValidateLines(ctx, req.InvoiceID, req.Decisions)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{
		MappedLines:      summary.MappedLines,
		CreatedMaterials: summary.CreatedMaterials,
		SkippedDecisions: summary.SkippedDecisions,
	}, nil
}

func (s *appService) ConfirmInvoice(ctx context.Context, id int, strict bool) (*ConfirmResult, error) {
	summary, err := s.invoices.Confirm(ctx, id, strict)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{
		MovementsCreated: summary.MovementsCreated,
		SkippedLines:     summary.SkippedLines,
	}, nil
}

func (s *appService) RemapInvoiceLine(ctx context.Context, invoiceID, lineID, materialID int) error {
	return s.invoices.RemapLine(ctx, invoiceID, lineID, materialID)
}

// ── Materials ─────────────────────────────────────────────────────────────────

func (s *appService) ListMaterials(ctx context.Context) (*MaterialListResult, error) {
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	return &MaterialListResult{Materials: materials}, nil
}

func (s *appService) GetMaterial(ctx context.Context, id int) (*core.Material, error) {
	return s.materials.Get(ctx, id)
}

func (s *appService) CreateMaterial(ctx context.Context, in core.MaterialInput) (*core.Material, error) {
	return s.materials.Create(ctx, in)
}

func (s *appService) UpdateMaterial(ctx context.Context, id int, in core.MaterialInput) (*core.Material, error) {
	return s.materials.Update(ctx, id, in)
}

func (s *appService) DeleteMaterial(ctx context.Context, id int) error {
	return s.materials.Delete(ctx, id)
}

func (s *appService) LowStockMaterials(ctx context.Context) (*MaterialListResult, error) {
	materials, err := s.materials.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &MaterialListResult{Materials: materials}, nil
}

// ── Stock ledger ──────────────────────────────────────────────────────────────

var movementKinds = map[string]core.MovementKind{
	string(core.MovementManualIn):   core.MovementManualIn,
	string(core.MovementManualOut):  core.MovementManualOut,
	string(core.MovementProjectOut): core.MovementProjectOut,
	string(core.MovementAdjustment): core.MovementAdjustment,
}

func (s *appService) RecordStockMovement(ctx context.Context, req RecordMovementRequest) (*core.StockMovement, error) {
	kind, ok := movementKinds[req.Kind]
	if !ok {
		// INVOICE_IN is only bookable through invoice confirmation.
		return nil, fmt.Errorf("unknown movement kind %q: %w", req.Kind, core.ErrInvalidInput)
	}
	change := req.Change
	if (kind == core.MovementManualOut || kind == core.MovementProjectOut) && change.IsPositive() {
		change = change.Neg()
	}
	return s.ledger.Append(ctx, core.MovementInput{
		MaterialID: req.MaterialID,
		Change:     change,
		Kind:       kind,
		ProjectID:  req.ProjectID,
		Note:       req.Note,
	})
}

func (s *appService) ListStockMovements(ctx context.Context, req MovementListRequest) (*MovementListResult, error) {
	movements, err := s.ledger.ListMovements(ctx, core.MovementFilter{
		MaterialID: req.MaterialID,
		ProjectID:  req.ProjectID,
		Kind:       core.MovementKind(req.Kind),
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &MovementListResult{Movements: movements}, nil
}

// ── Projects ──────────────────────────────────────────────────────────────────

func (s *appService) ListProjects(ctx context.Context) (*ProjectListResult, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ProjectListResult{Projects: projects}, nil
}

func (s *appService) GetProject(ctx context.Context, id int) (*core.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *appService) CreateProject(ctx context.Context, in core.ProjectInput) (*core.Project, error) {
	return s.projects.Create(ctx, in)
}

func (s *appService) UpdateProject(ctx context.Context, id int, in core.ProjectInput) (*core.Project, error) {
	return s.projects.Update(ctx, id, in)
}

func (s *appService) DeleteProject(ctx context.Context, id int) error {
	return s.projects.Delete(ctx, id)
}
