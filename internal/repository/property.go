package repository

import (
	"context"

	"propertyapi/internal/model"
)

// PropertyRepository defines data access for property records.
// No business logic here, strictly persistence operations.
type PropertyRepository interface {
	// Create inserts a new record. The store assigns the ID; CreatedAt is taken from the caller.
	// Returns the stored record.
	Create(ctx context.Context, p *model.Property) (*model.Property, error)

	// FindByID returns a record by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Property, error)

	// Find returns every record matching the filter. A zero filter matches all records.
	Find(ctx context.Context, f PropertyFilter) ([]model.Property, error)

	// Update applies the non-nil fields of the patch and returns the updated record, or ErrNotFound.
	Update(ctx context.Context, id string, patch PropertyPatch) (*model.Property, error)

	// Delete removes a record and returns it as it was before removal, or ErrNotFound.
	Delete(ctx context.Context, id string) (*model.Property, error)

	// ImageURLs returns every image URL referenced by any record.
	ImageURLs(ctx context.Context) ([]string, error)

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
}

// PropertyFilter holds the conditions of a Find call. Empty fields are not applied;
// all applied conditions combine with AND.
type PropertyFilter struct {
	// TitleContains matches titles containing the value, case-insensitively, as a literal.
	TitleContains string
	// Type matches the type exactly.
	Type string
	// PriceRange bounds the price inclusively on both ends.
	PriceRange *PriceRange
}

// PriceRange is a closed interval on price.
type PriceRange struct {
	Min float64
	Max float64
}

// IsZero reports whether the filter applies no condition.
func (f PropertyFilter) IsZero() bool {
	return f.TitleContains == "" && f.Type == "" && f.PriceRange == nil
}

// PropertyPatch carries the fields of a partial update. Nil fields are left untouched.
type PropertyPatch struct {
	ProjectID   *string
	Title       *string
	Area        *float64
	Price       *float64
	Description *string
	Location    *string
	Type        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p PropertyPatch) IsEmpty() bool {
	return p.ProjectID == nil && p.Title == nil && p.Area == nil && p.Price == nil &&
		p.Description == nil && p.Location == nil && p.Type == nil
}
