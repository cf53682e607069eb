package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"painsignal/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type painPointDocument struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	Description           string             `bson:"description"`
	Industry              string             `bson:"industry"`
	Sentiment             string             `bson:"sentiment"`
	ConfidenceScore       int                `bson:"confidenceScore"`
	ConfidenceExplanation string             `bson:"confidenceExplanation"`
	CreatedAt             string             `bson:"createdAt"`
	IsTest                bool               `bson:"isTest,omitempty"`
	IsAnonymous           bool               `bson:"isAnonymous,omitempty"`
}

func (d *painPointDocument) record() *models.PainPointRecord {
	return &models.PainPointRecord{
		ID:                    d.ID.Hex(),
		Description:           d.Description,
		Industry:              d.Industry,
		Sentiment:             d.Sentiment,
		ConfidenceScore:       d.ConfidenceScore,
		ConfidenceExplanation: d.ConfidenceExplanation,
		CreatedAt:             d.CreatedAt,
		IsTest:                d.IsTest,
		IsAnonymous:           d.IsAnonymous,
	}
}

type waitlistDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	SignedUpAt string             `bson:"signedUpAt"`
}

// OpenMongo connects to MongoDB and ensures the collection indexes exist.
func OpenMongo(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	primary := db.Collection(PrimaryCollection)
	public := db.Collection(PublicCollection)
	waitlist := db.Collection(WaitlistCollection)

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{primary, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		{public, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}}}},
		{waitlist, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(connectCtx, idx.model); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}

	logger.Info("MongoDB connected", zap.String("database", dbName))

	return &Store{
		Primary:  &mongoPainPointStore{coll: primary},
		Public:   &mongoPainPointStore{coll: public},
		Waitlist: &mongoWaitlistStore{coll: waitlist},
		close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}, nil
}

type mongoPainPointStore struct {
	coll *mongo.Collection
}

func (s *mongoPainPointStore) Insert(ctx context.Context, rec *models.PainPointRecord) error {
	doc := painPointDocument{
		Description:           rec.Description,
		Industry:              rec.Industry,
		Sentiment:             rec.Sentiment,
		ConfidenceScore:       rec.ConfidenceScore,
		ConfidenceExplanation: rec.ConfidenceExplanation,
		CreatedAt:             rec.CreatedAt,
		IsTest:                rec.IsTest,
		IsAnonymous:           rec.IsAnonymous,
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", s.coll.Name(), err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return nil
}

func (s *mongoPainPointStore) List(ctx context.Context, opts ListOptions) ([]*models.PainPointRecord, error) {
	filter := bson.M{}
	if !opts.IncludeTest {
		filter["isTest"] = bson.M{"$ne": true}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	records := []*models.PainPointRecord{}
	for cursor.Next(ctx) {
		var doc painPointDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", s.coll.Name(), err)
		}
		records = append(records, doc.record())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", s.coll.Name(), err)
	}

	return records, nil
}

func (s *mongoPainPointStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.coll.Name(), err)
	}
	return n, nil
}

func (s *mongoPainPointStore) Oldest(ctx context.Context) (*models.PainPointRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	var doc painPointDocument
	err := s.coll.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find oldest in %s: %w", s.coll.Name(), err)
	}
	return doc.record(), nil
}

func (s *mongoPainPointStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Not an id this store could have issued.
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete %s from %s: %w", id, s.coll.Name(), err)
	}
	return nil
}

type mongoWaitlistStore struct {
	coll *mongo.Collection
}

func (s *mongoWaitlistStore) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var doc waitlistDocument
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query waitlist: %w", err)
	}
	return &models.WaitlistEntry{ID: doc.ID.Hex(), Email: doc.Email, SignedUpAt: doc.SignedUpAt}, nil
}

func (s *mongoWaitlistStore) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	res, err := s.coll.InsertOne(ctx, waitlistDocument{Email: entry.Email, SignedUpAt: entry.SignedUpAt})
	if err != nil {
		return fmt.Errorf("failed to insert waitlist entry: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}
