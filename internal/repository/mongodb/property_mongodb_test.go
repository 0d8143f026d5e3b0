package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"propertyapi/internal/model"
	"propertyapi/internal/repository"
)

func propertyDoc(id primitive.ObjectID, title string, price float64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "projectId", Value: "proj-1"},
		{Key: "title", Value: title},
		{Key: "area", Value: 1200.0},
		{Key: "price", Value: price},
		{Key: "description", Value: "x"},
		{Key: "location", Value: "Lakeview"},
		{Key: "images", Value: bson.A{"http://localhost:8080/uploads/a.jpg"}},
		{Key: "createdAt", Value: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func TestPropertyMongo_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		now := time.Now()
		got, err := repo.Create(context.Background(), &model.Property{
			ProjectID:   "proj-1",
			Title:       "Lake House",
			Area:        1200,
			Price:       750000,
			Description: "x",
			Location:    "Lakeview",
			CreatedAt:   now,
		})

		require.NoError(mt, err)
		assert.Len(mt, got.ID, 24)
		assert.Equal(mt, "Lake House", got.Title)
		assert.Equal(mt, []string{}, got.Images)
		assert.Equal(mt, now.UTC().Truncate(time.Millisecond), got.CreatedAt)
	})

	mt.Run("write error", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key",
		}))

		got, err := repo.Create(context.Background(), &model.Property{Title: "x"})

		assert.Error(mt, err)
		assert.Nil(mt, got)
	})
}

func TestPropertyMongo_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "propertyapi.properties", mtest.FirstBatch,
			propertyDoc(id, "Seaside Villa", 900000)))

		got, err := repo.FindByID(context.Background(), id.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), got.ID)
		assert.Equal(mt, "Seaside Villa", got.Title)
		assert.Empty(mt, got.Type)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "propertyapi.properties", mtest.FirstBatch))

		got, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)

		got, err := repo.FindByID(context.Background(), "not-an-object-id")

		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})
}

func TestPropertyMongo_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all documents in a batch", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		first := mtest.CreateCursorResponse(1, "propertyapi.properties", mtest.FirstBatch,
			propertyDoc(primitive.NewObjectID(), "Seaside Villa", 900000),
			propertyDoc(primitive.NewObjectID(), "VILLA ESTATE", 2500000))
		last := mtest.CreateCursorResponse(0, "propertyapi.properties", mtest.NextBatch)
		mt.AddMockResponses(first, last)

		got, err := repo.Find(context.Background(), repository.PropertyFilter{TitleContains: "villa"})

		require.NoError(mt, err)
		assert.Len(mt, got, 2)
		assert.Equal(mt, "VILLA ESTATE", got[1].Title)
	})

	mt.Run("empty result is not nil", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "propertyapi.properties", mtest.FirstBatch))

		got, err := repo.Find(context.Background(), repository.PropertyFilter{})

		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("command error", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad query",
		}))

		got, err := repo.Find(context.Background(), repository.PropertyFilter{})

		assert.Error(mt, err)
		assert.Nil(mt, got)
	})
}

func TestBuildFilter(t *testing.T) {
	t.Run("zero filter matches everything", func(t *testing.T) {
		assert.Equal(t, bson.M{}, BuildFilter(repository.PropertyFilter{}))
	})

	t.Run("title is an escaped case-insensitive regex", func(t *testing.T) {
		f := BuildFilter(repository.PropertyFilter{TitleContains: "villa (sea)"})
		assert.Equal(t, primitive.Regex{Pattern: `villa \(sea\)`, Options: "i"}, f["title"])
	})

	t.Run("all conditions combine", func(t *testing.T) {
		f := BuildFilter(repository.PropertyFilter{
			TitleContains: "villa",
			Type:          "house",
			PriceRange:    &repository.PriceRange{Min: 0, Max: 500000},
		})
		assert.Len(t, f, 3)
		assert.Equal(t, "house", f["type"])
		assert.Equal(t, bson.M{"$gte": 0.0, "$lte": 500000.0}, f["price"])
	})
}

func TestPropertyMongo_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated document", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: propertyDoc(id, "Lake House", 800000)},
		})

		price := 800000.0
		got, err := repo.Update(context.Background(), id.Hex(), repository.PropertyPatch{Price: &price})

		require.NoError(mt, err)
		assert.Equal(mt, 800000.0, got.Price)
		assert.Equal(mt, "Lake House", got.Title)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		title := "x"
		got, err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), repository.PropertyPatch{Title: &title})

		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})

	mt.Run("empty patch reads current document", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "propertyapi.properties", mtest.FirstBatch,
			propertyDoc(id, "Lake House", 750000)))

		got, err := repo.Update(context.Background(), id.Hex(), repository.PropertyPatch{})

		require.NoError(mt, err)
		assert.Equal(mt, 750000.0, got.Price)
	})
}

func TestPropertyMongo_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns removed document", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: propertyDoc(id, "Lake House", 750000)},
		})

		got, err := repo.Delete(context.Background(), id.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), got.ID)
		assert.Equal(mt, []string{"http://localhost:8080/uploads/a.jpg"}, got.Images)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		got, err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})
}

func TestPropertyMongo_ImageURLs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reads every batch of the cursor", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(42, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "http://a/uploads/1.jpg"}},
				bson.D{{Key: "_id", Value: "http://a/uploads/2.jpg"}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
				bson.D{{Key: "_id", Value: "http://a/uploads/3.jpg"}},
			),
		)

		got, err := repo.ImageURLs(context.Background())

		require.NoError(mt, err)
		assert.Equal(mt, []string{"http://a/uploads/1.jpg", "http://a/uploads/2.jpg", "http://a/uploads/3.jpg"}, got)
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch))

		got, err := repo.ImageURLs(context.Background())

		require.NoError(mt, err)
		assert.Empty(mt, got)
		assert.NotNil(mt, got)
	})

	mt.Run("aggregate error", func(mt *mtest.T) {
		repo := NewPropertyMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline"}))

		got, err := repo.ImageURLs(context.Background())

		assert.Error(mt, err)
		assert.Nil(mt, got)
	})
}
