package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockLedger is the single write path for stock levels. Every change to a
// material's current_stock goes through an append-only movement row plus a
// counter update on the locked material row, in one transaction.
type StockLedger struct {
	pool *pgxpool.Pool
}

func NewStockLedger(pool *pgxpool.Pool) *StockLedger {
	return &StockLedger{pool: pool}
}

// MovementInput describes one signed stock change.
type MovementInput struct {
	MaterialID    int
	Change        decimal.Decimal
	Kind          MovementKind
	ReferenceType *string
	ReferenceID   *int
	ProjectID     *int
	Note          *string
}

// MovementFilter narrows ListMovements. Zero values mean no filtering.
type MovementFilter struct {
	MaterialID int
	ProjectID  int
	Kind       MovementKind
	Limit      int
}

func (l *StockLedger) Append(ctx context.Context, in MovementInput) (*StockMovement, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	mv, err := l.AppendInTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit movement: %w", err)
	}
	return mv, nil
}

// AppendInTx records a movement inside the caller's transaction, so invoice
// confirmation can write all its movements atomically. The material row is
// locked for the duration; an OUT movement that would take the stock
// negative fails the whole transaction.
func (l *StockLedger) AppendInTx(ctx context.Context, tx pgx.Tx, in MovementInput) (*StockMovement, error) {
	if in.Change.IsZero() {
		return nil, fmt.Errorf("movement for material %d must have a non-zero change: %w", in.MaterialID, ErrInvalidInput)
	}

	var current decimal.Decimal
	err := tx.QueryRow(ctx,
		`SELECT current_stock FROM materials WHERE id = $1 FOR UPDATE`,
		in.MaterialID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("material %d: %w", in.MaterialID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock material %d: %w", in.MaterialID, err)
	}

	next := current.Add(in.Change)
	if next.IsNegative() {
		return nil, fmt.Errorf("material %d has %s, movement of %s: %w",
			in.MaterialID, current, in.Change, ErrInsufficientStock)
	}

	mv := StockMovement{
		MaterialID:    in.MaterialID,
		Change:        in.Change,
		Kind:          in.Kind,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		ProjectID:     in.ProjectID,
		Note:          in.Note,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO stock_movements (material_id, change, kind, reference_type, reference_id, project_id, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		in.MaterialID, in.Change, in.Kind, in.ReferenceType, in.ReferenceID, in.ProjectID, in.Note,
	).Scan(&mv.ID, &mv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE materials SET current_stock = $1, updated_at = now() WHERE id = $2`,
		next, in.MaterialID,
	)
	if err != nil {
		return nil, fmt.Errorf("update stock counter: %w", err)
	}
	return &mv, nil
}

func (l *StockLedger) ListMovements(ctx context.Context, f MovementFilter) ([]StockMovement, error) {
	query := `SELECT id, material_id, change, kind, reference_type, reference_id, project_id, note, created_at
		FROM stock_movements WHERE 1=1`
	var args []any
	if f.MaterialID > 0 {
		args = append(args, f.MaterialID)
		query += fmt.Sprintf(" AND material_id = $%d", len(args))
	}
	if f.ProjectID > 0 {
		args = append(args, f.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	movements := []StockMovement{}
	for rows.Next() {
		var mv StockMovement
		if err := rows.Scan(&mv.ID, &mv.MaterialID, &mv.Change, &mv.Kind,
			&mv.ReferenceType, &mv.ReferenceID, &mv.ProjectID, &mv.Note, &mv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}
