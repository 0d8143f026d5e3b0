package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"propertyapi/internal/model"
	"propertyapi/internal/repository"
)

const propertyColumns = `id, project_id, title, area, price, description, location, type, images, created_at`

// likeEscaper escapes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PropertyPostgres is a PostgreSQL implementation of repository.PropertyRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PropertyPostgres struct {
	db *sql.DB
}

// NewPropertyPostgres creates a new PropertyPostgres repository.
func NewPropertyPostgres(db *sql.DB) *PropertyPostgres {
	return &PropertyPostgres{db: db}
}

var _ repository.PropertyRepository = (*PropertyPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*model.Property, error) {
	var (
		p      model.Property
		images []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Title,
		&p.Area,
		&p.Price,
		&p.Description,
		&p.Location,
		&p.Type,
		&images,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	return &p, nil
}

// Create inserts a new row with a generated UUID and returns the stored record.
func (r *PropertyPostgres) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	q := `
		INSERT INTO properties (` + propertyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + propertyColumns
	row := r.db.QueryRowContext(ctx, q,
		uuid.New().String(),
		p.ProjectID,
		p.Title,
		p.Area,
		p.Price,
		p.Description,
		p.Location,
		p.Type,
		string(imagesJSON),
		p.CreatedAt,
	)
	return scanProperty(row)
}

// FindByID fetches a single row by its ID.
func (r *PropertyPostgres) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	q := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// Find returns the rows matching the filter ordered by creation time.
func (r *PropertyPostgres) Find(ctx context.Context, f repository.PropertyFilter) ([]model.Property, error) {
	where, args := BuildWhere(f)
	q := `SELECT ` + propertyColumns + ` FROM properties` + where + ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// BuildWhere translates a repository filter into a WHERE clause and its arguments.
// It returns an empty clause for a zero filter.
func BuildWhere(f repository.PropertyFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.TitleContains != "" {
		args = append(args, likeEscaper.Replace(f.TitleContains))
		conds = append(conds, fmt.Sprintf(`title ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf(`type = $%d`, len(args)))
	}
	if f.PriceRange != nil {
		args = append(args, f.PriceRange.Min, f.PriceRange.Max)
		conds = append(conds, fmt.Sprintf(`price BETWEEN $%d AND $%d`, len(args)-1, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Update sets the patched columns and returns the updated row.
func (r *PropertyPostgres) Update(ctx context.Context, id string, patch repository.PropertyPatch) (*model.Property, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.ProjectID != nil {
		add("project_id", *patch.ProjectID)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Area != nil {
		add("area", *patch.Area)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE properties SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), propertyColumns)
	p, err := scanProperty(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// Delete removes a row and returns it as it was before removal.
func (r *PropertyPostgres) Delete(ctx context.Context, id string) (*model.Property, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	q := `DELETE FROM properties WHERE id = $1 RETURNING ` + propertyColumns
	p, err := scanProperty(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

// ImageURLs returns the distinct image URLs across all rows.
func (r *PropertyPostgres) ImageURLs(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT jsonb_array_elements_text(images) FROM properties`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Ping checks database connectivity.
func (r *PropertyPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
