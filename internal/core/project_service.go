package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectService manages installation projects, the destinations material is
// consumed against via PROJECT_OUT movements.
type ProjectService interface {
	Create(ctx context.Context, in ProjectInput) (*Project, error)
	Get(ctx context.Context, id int) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, id int, in ProjectInput) (*Project, error)
	Delete(ctx context.Context, id int) error
}

type ProjectInput struct {
	Name        string  `json:"name"`
	ClientName  *string `json:"client_name"`
	SiteAddress *string `json:"site_address"`
	Status      string  `json:"status"`
}

var projectStatuses = map[string]bool{"ACTIVE": true, "ON_HOLD": true, "COMPLETED": true}

type projectService struct {
	pool *pgxpool.Pool
}

func NewProjectService(pool *pgxpool.Pool) ProjectService {
	return &projectService{pool: pool}
}

const projectColumns = `id, name, client_name, site_address, status, created_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	if err := row.Scan(&p.ID, &p.Name, &p.ClientName, &p.SiteAddress, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *projectService) Create(ctx context.Context, in ProjectInput) (*Project, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := scanProject(s.pool.QueryRow(ctx, `
		INSERT INTO projects (name, client_name, site_address, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+projectColumns,
		strings.TrimSpace(in.Name), in.ClientName, in.SiteAddress, in.statusOrDefault()))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id int) (*Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *projectService) Update(ctx context.Context, id int, in ProjectInput) (*Project, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := scanProject(s.pool.QueryRow(ctx, `
		UPDATE projects SET name = $1, client_name = $2, site_address = $3, status = $4
		WHERE id = $5
		RETURNING `+projectColumns,
		strings.TrimSpace(in.Name), in.ClientName, in.SiteAddress, in.statusOrDefault(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

func (s *projectService) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("project %d has recorded movements: %w", id, ErrInUse)
	}
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return nil
}

func (in ProjectInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("project name is required: %w", ErrInvalidInput)
	}
	if in.Status != "" && !projectStatuses[in.Status] {
		return fmt.Errorf("unknown project status %q: %w", in.Status, ErrInvalidInput)
	}
	return nil
}

func (in ProjectInput) statusOrDefault() string {
	if in.Status == "" {
		return "ACTIVE"
	}
	return in.Status
}
