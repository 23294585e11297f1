package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"minichess/internal/models"
	"minichess/internal/records"
)

// RecordStore keeps game records in the games collection.
type RecordStore struct {
	coll *mongo.Collection
}

var _ records.Store = (*RecordStore)(nil)

func NewRecordStore(m *MongoDB) *RecordStore {
	return &RecordStore{coll: m.Games()}
}

func (s *RecordStore) Create(ctx context.Context, rec *models.GameRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.ID = primitive.NewObjectID()
	models.StampHistory(rec.History, now)

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert game record: %w", err)
	}
	return nil
}

func (s *RecordStore) List(ctx context.Context) ([]models.GameRecord, error) {
	return s.find(ctx, bson.M{})
}

func (s *RecordStore) ListByUser(ctx context.Context, userID string) ([]models.GameRecord, error) {
	return s.find(ctx, bson.M{"user": userID})
}

func (s *RecordStore) find(ctx context.Context, filter bson.M) ([]models.GameRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query game records: %w", err)
	}
	defer cursor.Close(ctx)

	recs := []models.GameRecord{}
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode game records: %w", err)
	}
	return recs, nil
}

func (s *RecordStore) Get(ctx context.Context, id primitive.ObjectID) (*models.GameRecord, error) {
	var rec models.GameRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game record: %w", err)
	}
	return &rec, nil
}

func (s *RecordStore) Update(ctx context.Context, id primitive.ObjectID, patch models.RecordPatch) (*models.GameRecord, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	if patch.Result != nil {
		set["result"] = *patch.Result
	}
	if patch.History != nil {
		models.StampHistory(*patch.History, now)
		set["history"] = *patch.History
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec models.GameRecord
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update game record: %w", err)
	}
	return &rec, nil
}

func (s *RecordStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete game record: %w", err)
	}
	if res.DeletedCount == 0 {
		return records.ErrNotFound
	}
	return nil
}
