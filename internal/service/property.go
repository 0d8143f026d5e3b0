package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"propertyapi/internal/asset"
	"propertyapi/internal/model"
	"propertyapi/internal/repository"
)

// PropertyInput carries creation fields as received from a form, before validation.
type PropertyInput struct {
	ProjectID   string
	Title       string
	Area        string
	Price       string
	Description string
	Location    string
	Type        string
}

// Criteria narrows a listing. Empty fields do not constrain the result.
type Criteria struct {
	Query  string
	Type   string
	Budget string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.Query == "" && c.Type == "" && c.Budget == ""
}

// AssetManager stores uploaded files and reclaims them by URL.
type AssetManager interface {
	Store(ctx context.Context, files []asset.File) ([]string, error)
	Reclaim(ctx context.Context, urls []string) asset.ReclaimResult
}

// PropertyService defines the use cases for property listings.
type PropertyService interface {
	// Create validates input, stores the images, then persists the record.
	// Stored images are reclaimed if a later step fails.
	Create(ctx context.Context, in PropertyInput, files []asset.File) (*model.Property, error)

	// Update applies the recognized keys of patch to the record and returns it.
	Update(ctx context.Context, id string, patch map[string]any) (*model.Property, error)

	// Delete removes the record and reclaims its images.
	Delete(ctx context.Context, id string) (*model.Property, error)

	// List returns every record in store order.
	List(ctx context.Context) ([]model.Property, error)

	// Filter returns the records matching all given criteria.
	Filter(ctx context.Context, c Criteria) ([]model.Property, error)
}

type propertyService struct {
	repo   repository.PropertyRepository
	assets AssetManager
	logger *slog.Logger
	now    func() time.Time
}

// NewPropertyService constructs a new PropertyService.
func NewPropertyService(repo repository.PropertyRepository, assets AssetManager, logger *slog.Logger) PropertyService {
	return &propertyService{
		repo:   repo,
		assets: assets,
		logger: logger.With(slog.String("component", "service")),
		now:    time.Now,
	}
}

func (s *propertyService) Create(ctx context.Context, in PropertyInput, files []asset.File) (*model.Property, error) {
	p, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	urls, err := s.assets.Store(ctx, files)
	if err != nil {
		s.rollback(ctx, urls)
		return nil, err
	}
	p.Images = urls
	p.CreatedAt = s.now().UTC()

	stored, err := s.repo.Create(ctx, p)
	if err != nil {
		s.rollback(ctx, urls)
		return nil, fmt.Errorf("%w: save property: %w", ErrPersistence, err)
	}
	return stored, nil
}

// rollback reclaims images stored for a record that was never persisted.
func (s *propertyService) rollback(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	res := s.assets.Reclaim(context.WithoutCancel(ctx), urls)
	s.logger.Warn("create_rollback",
		slog.Int("removed", res.Removed),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
	)
}

func validateInput(in PropertyInput) (*model.Property, error) {
	p := &model.Property{
		ProjectID:   strings.TrimSpace(in.ProjectID),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Type:        strings.TrimSpace(in.Type),
		Images:      []string{},
	}
	required := []struct {
		field string
		value string
	}{
		{"projectId", p.ProjectID},
		{"title", p.Title},
		{"area", strings.TrimSpace(in.Area)},
		{"price", strings.TrimSpace(in.Price)},
		{"description", p.Description},
		{"location", p.Location},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field, Reason: "is required"}
		}
	}

	var err error
	if p.Area, err = parseNumber("area", in.Area); err != nil {
		return nil, err
	}
	if p.Price, err = parseNumber("price", in.Price); err != nil {
		return nil, err
	}
	return p, nil
}

func parseNumber(field, raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return f, nil
}

func (s *propertyService) Update(ctx context.Context, id string, patch map[string]any) (*model.Property, error) {
	p, err := buildPatch(patch)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, mapRepoErr(err, "update property")
	}
	return updated, nil
}

// buildPatch keeps the recognized keys of a raw update body. Identity, creation time
// and images cannot be changed through it.
func buildPatch(raw map[string]any) (repository.PropertyPatch, error) {
	var p repository.PropertyPatch

	str := func(key string, required bool) (*string, error) {
		v, ok := raw[key]
		if !ok || v == nil {
			return nil, nil
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case float64, json.Number, int, int64, bool:
			s = fmt.Sprint(t)
		default:
			return nil, &ValidationError{Field: key, Reason: "must be a string"}
		}
		if required && s == "" {
			return nil, &ValidationError{Field: key, Reason: "must not be empty"}
		}
		return &s, nil
	}
	num := func(key string) (*float64, error) {
		v, ok := raw[key]
		if !ok || v == nil {
			return nil, nil
		}
		var f float64
		switch t := v.(type) {
		case float64:
			f = t
		case int:
			f = float64(t)
		case int64:
			f = float64(t)
		case json.Number:
			n, err := t.Float64()
			if err != nil {
				return nil, &ValidationError{Field: key, Reason: "must be a number"}
			}
			f = n
		case string:
			n, err := parseNumber(key, t)
			if err != nil {
				return nil, err
			}
			f = n
		default:
			return nil, &ValidationError{Field: key, Reason: "must be a number"}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ValidationError{Field: key, Reason: "must be a number"}
		}
		return &f, nil
	}

	var err error
	if p.ProjectID, err = str("projectId", true); err != nil {
		return p, err
	}
	if p.Title, err = str("title", true); err != nil {
		return p, err
	}
	if p.Description, err = str("description", true); err != nil {
		return p, err
	}
	if p.Location, err = str("location", true); err != nil {
		return p, err
	}
	if p.Type, err = str("type", false); err != nil {
		return p, err
	}
	if p.Area, err = num("area"); err != nil {
		return p, err
	}
	if p.Price, err = num("price"); err != nil {
		return p, err
	}
	return p, nil
}

func (s *propertyService) Delete(ctx context.Context, id string) (*model.Property, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "delete property")
	}

	if len(removed.Images) > 0 {
		res := s.assets.Reclaim(context.WithoutCancel(ctx), removed.Images)
		s.logger.Info("property_assets_reclaimed",
			slog.String("property_id", removed.ID),
			slog.Int("removed", res.Removed),
			slog.Int("skipped", res.Skipped),
			slog.Int("failed", res.Failed),
		)
	}
	return removed, nil
}

func (s *propertyService) List(ctx context.Context) ([]model.Property, error) {
	items, err := s.repo.Find(ctx, repository.PropertyFilter{})
	if err != nil {
		return nil, mapRepoErr(err, "list properties")
	}
	return items, nil
}

func (s *propertyService) Filter(ctx context.Context, c Criteria) ([]model.Property, error) {
	f := repository.PropertyFilter{
		TitleContains: strings.TrimSpace(c.Query),
		Type:          strings.TrimSpace(c.Type),
	}
	if r, ok := BudgetRange(c.Budget); ok {
		f.PriceRange = &r
	}
	items, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, mapRepoErr(err, "filter properties")
	}
	return items, nil
}

func mapRepoErr(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
