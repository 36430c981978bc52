package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adforge/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const pgUniqueViolation = "23505"

const templateColumns = `
	id, owner_user_id, visibility, name, category, description, objective,
	conversion_method, targeting, budget, ad_copy, usage_count, created_at, updated_at`

type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func (r *TemplateRepo) Create(ctx context.Context, t *models.Template) error {
	enc, err := encodeTemplateFields(t.Targeting, t.Budget, t.AdCopy)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO templates (owner_user_id, visibility, name, category, description, objective,
		                       conversion_method, targeting, budget, ad_copy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, usage_count, created_at, updated_at
	`, t.Ownership.OwnerID(), t.Ownership.Visibility(), t.Name, t.Category, t.Description,
		t.Objective, t.ConversionMethod, enc.Targeting, enc.Budget, enc.AdCopy,
	).Scan(&t.ID, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt)
	return mapWriteError(err)
}

func (r *TemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindByNameAndCategory matches name exactly, including case.
func (r *TemplateRepo) FindByNameAndCategory(ctx context.Context, name string, category models.Category) ([]models.Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM templates WHERE name = $1 AND category = $2
	`, name, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTemplates(rows)
}

// IncrementUsage bumps the counter in SQL so concurrent launches are not lost.
func (r *TemplateRepo) IncrementUsage(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		UPDATE templates SET usage_count = usage_count + 1
		WHERE id = $1
		RETURNING usage_count
	`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return count, err
}

func (r *TemplateRepo) Update(ctx context.Context, id uuid.UUID, p models.TemplatePatch) error {
	set := []string{}
	args := []any{}
	argIdx := 1
	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Objective != nil {
		add("objective", *p.Objective)
	}
	if p.ConversionMethod != nil {
		add("conversion_method", *p.ConversionMethod)
	}
	if p.Visibility != nil {
		add("visibility", *p.Visibility)
	}
	if p.Targeting != nil || p.Budget != nil || p.AdCopy != nil {
		enc, err := encodeTemplateFields(derefOr(p.Targeting), derefOr(p.Budget), derefOr(p.AdCopy))
		if err != nil {
			return err
		}
		if p.Targeting != nil {
			add("targeting", enc.Targeting)
		}
		if p.Budget != nil {
			add("budget", enc.Budget)
		}
		if p.AdCopy != nil {
			add("ad_copy", enc.AdCopy)
		}
	}
	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE templates SET %s, updated_at = now() WHERE id = $%d`,
		strings.Join(set, ", "), argIdx)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type TemplateFilter struct {
	ViewerID  uuid.UUID
	OwnedOnly bool
	Category  *models.Category
	Search    string
	Limit     int
	Offset    int
}

// List returns templates the viewer may see: public ones and their own.
func (r *TemplateRepo) List(ctx context.Context, f TemplateFilter) ([]models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.OwnedOnly {
		where = append(where, fmt.Sprintf("owner_user_id = $%d", argIdx))
	} else {
		where = append(where, fmt.Sprintf("(visibility = 'PUBLIC' OR owner_user_id = $%d)", argIdx))
	}
	args = append(args, f.ViewerID)
	argIdx++

	if f.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *f.Category)
		argIdx++
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+s+"%")
		argIdx++
	}

	query += " WHERE " + strings.Join(where, " AND ")

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY usage_count DESC, created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var (
		t                         models.Template
		ownerID                   *uuid.UUID
		visibility                string
		targeting, budget, adCopy []byte
	)
	if err := row.Scan(&t.ID, &ownerID, &visibility, &t.Name, &t.Category, &t.Description,
		&t.Objective, &t.ConversionMethod, &targeting, &budget, &adCopy,
		&t.UsageCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	ownership, err := models.RestoreOwnership(ownerID, models.Visibility(visibility))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}
	t.Ownership = ownership

	if err := decodeTemplateFields(&t, targeting, budget, adCopy); err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}
	return &t, nil
}

func collectTemplates(rows pgx.Rows) ([]models.Template, error) {
	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func derefOr[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
