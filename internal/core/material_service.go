package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"solarstock/internal/match"
)

// MaterialService manages the material catalog. Stock levels are read here
// but only ever written through the StockLedger.
type MaterialService interface {
	Create(ctx context.Context, in MaterialInput) (*Material, error)
	Get(ctx context.Context, id int) (*Material, error)
	List(ctx context.Context) ([]Material, error)
	Update(ctx context.Context, id int, in MaterialInput) (*Material, error)
	Delete(ctx context.Context, id int) error
	// LowStock returns materials at or below their minimum stock level.
	LowStock(ctx context.Context) ([]Material, error)
	// Catalog returns the id/sku/name snapshot the matcher works against.
	Catalog(ctx context.Context) ([]match.CatalogEntry, error)
}

type MaterialInput struct {
	SKU          *string          `json:"sku"`
	Name         string           `json:"name"`
	Category     *string          `json:"category"`
	Unit         string           `json:"unit"`
	MinimumStock decimal.Decimal  `json:"minimum_stock"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
}

type materialService struct {
	pool *pgxpool.Pool
}

func NewMaterialService(pool *pgxpool.Pool) MaterialService {
	return &materialService{pool: pool}
}

const materialColumns = `id, sku, name, category, unit, current_stock, minimum_stock, unit_price, created_at, updated_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.SKU, &m.Name, &m.Category, &m.Unit,
		&m.CurrentStock, &m.MinimumStock, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *materialService) Create(ctx context.Context, in MaterialInput) (*Material, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := scanMaterial(s.pool.QueryRow(ctx, `
		INSERT INTO materials (sku, name, category, unit, minimum_stock, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+materialColumns,
		in.SKU, strings.TrimSpace(in.Name), in.Category, in.unitOrDefault(), in.MinimumStock, in.UnitPrice))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("material %q: %w", deref(in.SKU), ErrDuplicateSKU)
		}
		return nil, fmt.Errorf("insert material: %w", err)
	}
	return m, nil
}

func (s *materialService) Get(ctx context.Context, id int) (*Material, error) {
	m, err := scanMaterial(s.pool.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("material %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query material: %w", err)
	}
	return m, nil
}

func (s *materialService) List(ctx context.Context) ([]Material, error) {
	return s.listWhere(ctx, "", nil)
}

func (s *materialService) LowStock(ctx context.Context) ([]Material, error) {
	return s.listWhere(ctx, "WHERE current_stock <= minimum_stock AND minimum_stock > 0", nil)
}

func (s *materialService) listWhere(ctx context.Context, where string, args []any) ([]Material, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+materialColumns+` FROM materials `+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := []Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, *m)
	}
	return materials, rows.Err()
}

func (s *materialService) Update(ctx context.Context, id int, in MaterialInput) (*Material, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := scanMaterial(s.pool.QueryRow(ctx, `
		UPDATE materials
		SET sku = $1, name = $2, category = $3, unit = $4, minimum_stock = $5, unit_price = $6, updated_at = now()
		WHERE id = $7
		RETURNING `+materialColumns,
		in.SKU, strings.TrimSpace(in.Name), in.Category, in.unitOrDefault(), in.MinimumStock, in.UnitPrice, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("material %d: %w", id, ErrNotFound)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("material %q: %w", deref(in.SKU), ErrDuplicateSKU)
		}
		return nil, fmt.Errorf("update material: %w", err)
	}
	return m, nil
}

func (s *materialService) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("material %d has recorded movements or invoice lines: %w", id, ErrInUse)
	}
	if err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *materialService) Catalog(ctx context.Context) ([]match.CatalogEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, COALESCE(sku, ''), name FROM materials ORDER BY id`)
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

func (in MaterialInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("material name is required: %w", ErrInvalidInput)
	}
	if in.MinimumStock.IsNegative() {
		return fmt.Errorf("minimum stock cannot be negative: %w", ErrInvalidInput)
	}
	return nil
}

func (in MaterialInput) unitOrDefault() string {
	if u := strings.TrimSpace(in.Unit); u != "" {
		return u
	}
	return "buc"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
