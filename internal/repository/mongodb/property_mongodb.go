package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"propertyapi/internal/model"
	"propertyapi/internal/repository"
)

// propertyDocument is the BSON shape of a property in the collection.
type propertyDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID   string             `bson:"projectId"`
	Title       string             `bson:"title"`
	Area        float64            `bson:"area"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Location    string             `bson:"location"`
	Type        string             `bson:"type,omitempty"`
	Images      []string           `bson:"images"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d *propertyDocument) toModel() *model.Property {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &model.Property{
		ID:          d.ID.Hex(),
		ProjectID:   d.ProjectID,
		Title:       d.Title,
		Area:        d.Area,
		Price:       d.Price,
		Description: d.Description,
		Location:    d.Location,
		Type:        d.Type,
		Images:      images,
		CreatedAt:   d.CreatedAt,
	}
}

// PropertyMongo is a MongoDB implementation of repository.PropertyRepository.
// Every write is a single-document operation, so no extra locking is needed.
type PropertyMongo struct {
	coll *mongo.Collection
}

// NewPropertyMongo creates a new PropertyMongo repository on the given collection.
func NewPropertyMongo(coll *mongo.Collection) *PropertyMongo {
	return &PropertyMongo{coll: coll}
}

var _ repository.PropertyRepository = (*PropertyMongo)(nil)

// EnsureIndexes creates the secondary indexes used by listing and filtering.
func (r *PropertyMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Create inserts a new document. The ObjectID is generated client-side.
func (r *PropertyMongo) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	doc := propertyDocument{
		ID:          primitive.NewObjectID(),
		ProjectID:   p.ProjectID,
		Title:       p.Title,
		Area:        p.Area,
		Price:       p.Price,
		Description: p.Description,
		Location:    p.Location,
		Type:        p.Type,
		Images:      images,
		// BSON dates carry millisecond precision.
		CreatedAt: p.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// FindByID fetches a single document by its hex ObjectID.
func (r *PropertyMongo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc propertyDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toModel(), nil
}

// Find returns the documents matching the filter in insertion order.
func (r *PropertyMongo) Find(ctx context.Context, f repository.PropertyFilter) ([]model.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, BuildFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]model.Property, 0)
	for cur.Next(ctx) {
		var doc propertyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, *doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// BuildFilter translates a repository filter into a MongoDB query document.
func BuildFilter(f repository.PropertyFilter) bson.M {
	filter := bson.M{}
	if f.TitleContains != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.TitleContains), Options: "i"}
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.PriceRange != nil {
		filter["price"] = bson.M{"$gte": f.PriceRange.Min, "$lte": f.PriceRange.Max}
	}
	return filter
}

// Update sets the patched fields and returns the document after the update.
func (r *PropertyMongo) Update(ctx context.Context, id string, patch repository.PropertyPatch) (*model.Property, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	set := bson.M{}
	if patch.ProjectID != nil {
		set["projectId"] = *patch.ProjectID
	}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Area != nil {
		set["area"] = *patch.Area
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc propertyDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toModel(), nil
}

// Delete removes a document atomically and returns its prior state.
func (r *PropertyMongo) Delete(ctx context.Context, id string) (*model.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc propertyDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNoDocuments(err)
	}
	return doc.toModel(), nil
}

// ImageURLs returns the distinct image URLs across all documents, sorted.
// The set is streamed through a cursor so it is not bound by the size of one reply.
func (r *PropertyMongo) ImageURLs(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$images"}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$images"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	urls := make([]string, 0)
	for cur.Next(ctx) {
		var row struct {
			URL string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		urls = append(urls, row.URL)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Ping checks connectivity to the primary.
func (r *PropertyMongo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func mapNoDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
