package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"solarstock/internal/match"
	"solarstock/internal/parse"
	"solarstock/internal/parsersvc"
)

// MaxUploadBytes caps accepted invoice documents.
const MaxUploadBytes = 10 << 20

// InvoiceService drives the ingestion pipeline: format detection,
// extraction, material matching, manual validation and final confirmation
// into the stock ledger.
type InvoiceService interface {
	// Ingest parses an uploaded document, stores the invoice with its
	// extracted lines and match suggestions, and moves it to PARSED.
	Ingest(ctx context.Context, filename, contentType string, data []byte) (*InvoiceDetail, error)
	Get(ctx context.Context, id int) (*InvoiceDetail, error)
	// List returns invoices newest first, optionally filtered by status.
	List(ctx context.Context, status InvoiceStatus) ([]Invoice, error)
	// ValidateLines applies manual line-to-material decisions: map to an
	// existing material or create a new one on the fly. Unresolvable
	// entries are counted and skipped, not fatal.
	ValidateLines(ctx context.Context, invoiceID int, decisions []LineDecision) (*ValidationSummary, error)
	// Confirm books one INVOICE_IN movement per mapped line and moves the
	// invoice to CONFIRMED, all in one transaction. With strict set, any
	// unmapped line aborts instead of being skipped.
	Confirm(ctx context.Context, invoiceID int, strict bool) (*ConfirmSummary, error)
	// RemapLine changes the material mapping of a single line before
	// confirmation.
	RemapLine(ctx context.Context, invoiceID, lineID, materialID int) error
	// RawText returns the stored extraction source for diagnostics.
	RawText(ctx context.Context, id int) (string, error)
}

type InvoiceDetail struct {
	Invoice Invoice       `json:"invoice"`
	Lines   []InvoiceLine `json:"lines"`
}

// LineDecision is one manual mapping decision for an extracted line.
type LineDecision struct {
	LineID      int            `json:"line_id"`
	MaterialID  *int           `json:"material_id"`
	CreateNew   bool           `json:"create_new"`
	NewMaterial *MaterialInput `json:"new_material"`
}

type ValidationSummary struct {
	MappedLines      int `json:"mapped_lines"`
	CreatedMaterials int `json:"created_materials"`
	SkippedDecisions int `json:"skipped_decisions"`
}

type ConfirmSummary struct {
	MovementsCreated int `json:"movements_created"`
	SkippedLines     int `json:"skipped_lines"`
}

type invoiceService struct {
	pool   *pgxpool.Pool
	ledger *StockLedger
	parser *parsersvc.Client
	cutoff float64
}

// NewInvoiceService wires the pipeline. The parser client may be
// unconfigured; XML documents are then handled by the local extractor.
func NewInvoiceService(pool *pgxpool.Pool, ledger *StockLedger, parser *parsersvc.Client, cutoff float64) InvoiceService {
	if cutoff <= 0 {
		cutoff = match.DefaultCutoff
	}
	return &invoiceService{pool: pool, ledger: ledger, parser: parser, cutoff: cutoff}
}

func (s *invoiceService) Ingest(ctx context.Context, filename, contentType string, data []byte) (*InvoiceDetail, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyFile)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%s (%d bytes): %w", filename, len(data), ErrFileTooLarge)
	}
	format := parse.DetectFormat(filename, contentType)
	if format == parse.FormatUnknown {
		return nil, fmt.Errorf("%s: %w", filename, parse.ErrUnsupportedFormat)
	}

	parsed, err := s.extract(ctx, format, filename, data)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var inv Invoice
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (supplier, invoice_number, invoice_date, total_amount, status, filename, file_format, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, supplier, invoice_number, invoice_date, total_amount, status, filename, file_format, created_at`,
		nullable(parsed.Supplier), nullable(parsed.InvoiceNumber), nullable(parsed.InvoiceDate),
		parsed.TotalAmount, StatusPending, nullable(filename), nullable(string(format)), nullable(parsed.RawText),
	).Scan(&inv.ID, &inv.Supplier, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.TotalAmount,
		&inv.Status, &inv.Filename, &inv.FileFormat, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	catalog, err := catalogSnapshot(ctx, tx)
	if err != nil {
		return nil, err
	}

	lines := []InvoiceLine{}
	for _, item := range parsed.Items {
		line := InvoiceLine{
			InvoiceID:   inv.ID,
			SKURaw:      nullable(item.SKU),
			Description: nullable(item.Description),
			Quantity:    item.Quantity,
			Unit:        nullable(item.Unit),
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			TaxPercent:  item.TaxPercent,
		}
		if sug, ok := match.Best(match.Input{SKU: item.SKU, Description: item.Description}, catalog, s.cutoff); ok {
			line.SuggestedMaterialID = &sug.MaterialID
			line.MatchConfidence = &sug.Confidence
			kind := string(sug.Kind)
			line.MatchKind = &kind
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO invoice_lines (invoice_id, suggested_material_id, match_confidence, match_kind, sku_raw, description, quantity, unit, unit_price, total_price, tax_percent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			inv.ID, line.SuggestedMaterialID, line.MatchConfidence, line.MatchKind,
			line.SKURaw, line.Description, line.Quantity, line.Unit,
			line.UnitPrice, line.TotalPrice, line.TaxPercent,
		).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("insert invoice line: %w", err)
		}
		lines = append(lines, line)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2`, StatusParsed, inv.ID); err != nil {
		return nil, fmt.Errorf("mark invoice parsed: %w", err)
	}
	inv.Status = StatusParsed

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice: %w", err)
	}
	return &InvoiceDetail{Invoice: inv, Lines: lines}, nil
}

// extract picks the extraction path. XML goes to the dedicated parser
// service when one is configured; its errors pass through unwrapped so the
// web layer can distinguish auth failures and timeouts.
func (s *invoiceService) extract(ctx context.Context, format parse.Format, filename string, data []byte) (*parse.ParsedInvoice, error) {
	if format == parse.FormatXML && s.parser.Configured() {
		return s.parser.Parse(ctx, filename, data)
	}
	ext, err := parse.ForFormat(format)
	if err != nil {
		return nil, err
	}
	parsed, err := ext.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("extract %s document: %w", format, err)
	}
	return parsed, nil
}

func catalogSnapshot(ctx context.Context, tx pgx.Tx) ([]match.CatalogEntry, error) {
	rows, err := tx.Query(ctx, `SELECT id, COALESCE(sku, ''), name FROM materials ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	entries := []match.CatalogEntry{}
	for rows.Next() {
		var e match.CatalogEntry
		if err := rows.Scan(&e.ID, &e.SKU, &e.Name); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const invoiceColumns = `id, supplier, invoice_number, invoice_date, total_amount, status, filename, file_format, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Supplier, &inv.InvoiceNumber, &inv.InvoiceDate,
		&inv.TotalAmount, &inv.Status, &inv.Filename, &inv.FileFormat, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *invoiceService) Get(ctx context.Context, id int) (*InvoiceDetail, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, material_id, suggested_material_id, match_confidence, match_kind,
		       sku_raw, description, quantity, unit, unit_price, total_price, tax_percent
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	lines := []InvoiceLine{}
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.MaterialID, &l.SuggestedMaterialID,
			&l.MatchConfidence, &l.MatchKind, &l.SKURaw, &l.Description,
			&l.Quantity, &l.Unit, &l.UnitPrice, &l.TotalPrice, &l.TaxPercent); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &InvoiceDetail{Invoice: *inv, Lines: lines}, nil
}

func (s *invoiceService) List(ctx context.Context, status InvoiceStatus) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) ValidateLines(ctx context.Context, invoiceID int, decisions []LineDecision) (*ValidationSummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockInvoice(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if status == StatusConfirmed {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrAlreadyConfirmed)
	}
	if status == StatusPending {
		return nil, fmt.Errorf("invoice %d not yet parsed: %w", invoiceID, ErrInvalidTransition)
	}

	summary := &ValidationSummary{}
	for _, d := range decisions {
		var lineExists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM invoice_lines WHERE id = $1 AND invoice_id = $2)`,
			d.LineID, invoiceID).Scan(&lineExists); err != nil {
			return nil, fmt.Errorf("check line %d: %w", d.LineID, err)
		}
		if !lineExists {
			summary.SkippedDecisions++
			continue
		}

		materialID, created, err := s.resolveDecision(ctx, tx, d)
		if err != nil {
			return nil, err
		}
		if materialID == 0 {
			summary.SkippedDecisions++
			continue
		}
		if created {
			summary.CreatedMaterials++
		}

		if _, err := tx.Exec(ctx,
			`UPDATE invoice_lines SET material_id = $1 WHERE id = $2`,
			materialID, d.LineID); err != nil {
			return nil, fmt.Errorf("map line %d: %w", d.LineID, err)
		}
		summary.MappedLines++
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2`, StatusValidated, invoiceID); err != nil {
		return nil, fmt.Errorf("mark invoice validated: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit validation: %w", err)
	}
	return summary, nil
}

// resolveDecision turns one decision into a material id. Creating a new
// material is idempotent on the normalized name: re-submitting the same
// batch reuses the material created the first time.
func (s *invoiceService) resolveDecision(ctx context.Context, tx pgx.Tx, d LineDecision) (materialID int, created bool, err error) {
	if d.CreateNew && d.NewMaterial != nil {
		in := *d.NewMaterial
		if err := in.validate(); err != nil {
			return 0, false, nil
		}
		err = tx.QueryRow(ctx,
			`SELECT id FROM materials WHERE lower(name) = lower($1)`, in.Name).Scan(&materialID)
		if err == nil {
			return materialID, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("look up material by name: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO materials (sku, name, category, unit, minimum_stock, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			in.SKU, in.Name, in.Category, in.unitOrDefault(), in.MinimumStock, in.UnitPrice,
		).Scan(&materialID)
		if err != nil {
			return 0, false, fmt.Errorf("create material %q: %w", in.Name, err)
		}
		return materialID, true, nil
	}

	if d.MaterialID == nil {
		return 0, false, nil
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM materials WHERE id = $1)`, *d.MaterialID).Scan(&exists); err != nil {
		return 0, false, fmt.Errorf("check material %d: %w", *d.MaterialID, err)
	}
	if !exists {
		return 0, false, nil
	}
	return *d.MaterialID, false, nil
}

func (s *invoiceService) Confirm(ctx context.Context, invoiceID int, strict bool) (*ConfirmSummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockInvoice(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if status == StatusConfirmed {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrAlreadyConfirmed)
	}
	if status == StatusPending {
		return nil, fmt.Errorf("invoice %d not yet parsed: %w", invoiceID, ErrInvalidTransition)
	}

	rows, err := tx.Query(ctx,
		`SELECT id, material_id, quantity FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`,
		invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	type confirmLine struct {
		id         int
		materialID *int
		quantity   decimal.Decimal
	}
	var lines []confirmLine
	for rows.Next() {
		var l confirmLine
		if err := rows.Scan(&l.id, &l.materialID, &l.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary := &ConfirmSummary{}
	refType := "INVOICE"
	for _, l := range lines {
		if l.materialID == nil || !l.quantity.IsPositive() {
			if strict && l.materialID == nil {
				return nil, fmt.Errorf("invoice %d line %d: %w", invoiceID, l.id, ErrUnmappedLines)
			}
			summary.SkippedLines++
			continue
		}
		lineID := l.id
		note := fmt.Sprintf("invoice %d line %d", invoiceID, l.id)
		_, err := s.ledger.AppendInTx(ctx, tx, MovementInput{
			MaterialID:    *l.materialID,
			Change:        l.quantity,
			Kind:          MovementInvoiceIn,
			ReferenceType: &refType,
			ReferenceID:   &lineID,
			Note:          &note,
		})
		if err != nil {
			return nil, fmt.Errorf("book line %d: %w", l.id, err)
		}
		summary.MovementsCreated++
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2`, StatusConfirmed, invoiceID); err != nil {
		return nil, fmt.Errorf("mark invoice confirmed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirmation: %w", err)
	}
	return summary, nil
}

func (s *invoiceService) RemapLine(ctx context.Context, invoiceID, lineID, materialID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockInvoice(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	if status == StatusConfirmed {
		return fmt.Errorf("invoice %d: %w", invoiceID, ErrAlreadyConfirmed)
	}
	if status == StatusPending {
		return fmt.Errorf("invoice %d not yet parsed: %w", invoiceID, ErrInvalidTransition)
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM materials WHERE id = $1)`, materialID).Scan(&exists); err != nil {
		return fmt.Errorf("check material %d: %w", materialID, err)
	}
	if !exists {
		return fmt.Errorf("material %d: %w", materialID, ErrNotFound)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE invoice_lines SET material_id = $1 WHERE id = $2 AND invoice_id = $3`,
		materialID, lineID, invoiceID)
	if err != nil {
		return fmt.Errorf("remap line %d: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d line %d: %w", invoiceID, lineID, ErrNotFound)
	}
	return tx.Commit(ctx)
}

func (s *invoiceService) RawText(ctx context.Context, id int) (string, error) {
	var raw *string
	err := s.pool.QueryRow(ctx, `SELECT raw_text FROM invoices WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query raw text: %w", err)
	}
	if raw == nil {
		return "", nil
	}
	return *raw, nil
}

func lockInvoice(ctx context.Context, tx pgx.Tx, invoiceID int) (InvoiceStatus, error) {
	var status InvoiceStatus
	err := tx.QueryRow(ctx,
		`SELECT status FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lock invoice %d: %w", invoiceID, err)
	}
	return status, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
