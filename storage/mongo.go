package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	currency "github.com/malusev998/rate-sync"
)

type (
	MongoStorage struct {
		ctx        context.Context
		client     *mongo.Client
		collection *mongo.Collection
	}

	mongoRecord struct {
		ID        string    `bson:"_id"`
		Pair      string    `bson:"pair"`
		Currency  string    `bson:"currency"`
		Rate      float64   `bson:"rate"`
		Source    string    `bson:"source"`
		Status    string    `bson:"status"`
		UpdatedAt time.Time `bson:"updatedAt"`
	}
)

func NewMongoStorage(config MongoDBConfig) (*MongoStorage, error) {
	ctx := config.Ctx

	if ctx == nil {
		ctx = context.Background()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.ConnectionString))

	if err != nil {
		return nil, err
	}

	st := NewMongoStorageFromCollection(ctx, client.Database(config.Database).Collection(config.Collection))
	st.client = client

	return st, nil
}

func NewMongoStorageFromCollection(ctx context.Context, collection *mongo.Collection) *MongoStorage {
	return &MongoStorage{
		ctx:        ctx,
		collection: collection,
	}
}

func (m *MongoStorage) Find(ctx context.Context, pair string) ([]currency.RecordWithID, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"pair": pair})

	if err != nil {
		return nil, err
	}

	defer cursor.Close(ctx)

	var docs []mongoRecord

	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]currency.RecordWithID, 0, len(docs))

	for _, doc := range docs {
		records = append(records, currency.RecordWithID{
			Record: currency.Record{
				Pair:     doc.Pair,
				Currency: doc.Currency,
				Rate:     doc.Rate,
				Source:   doc.Source,
				Status:   currency.Status(doc.Status),
			},
			ID: doc.ID,
		})
	}

	return records, nil
}

func (m *MongoStorage) Update(ctx context.Context, id string, record currency.Record) error {
	result, err := m.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"currency":  record.Currency,
			"rate":      record.Rate,
			"source":    record.Source,
			"status":    string(record.Status),
			"updatedAt": time.Now().UTC(),
		},
	})

	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *MongoStorage) Create(ctx context.Context, record currency.Record) (currency.RecordWithID, error) {
	doc := mongoRecord{
		ID:        uuid.NewString(),
		Pair:      record.Pair,
		Currency:  record.Currency,
		Rate:      record.Rate,
		Source:    record.Source,
		Status:    string(record.Status),
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return currency.RecordWithID{}, err
	}

	return currency.RecordWithID{Record: record, ID: doc.ID}, nil
}

// Migrate enforces one document per pair label.
func (m *MongoStorage) Migrate() error {
	_, err := m.collection.Indexes().CreateOne(m.ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return err
}

func (m *MongoStorage) Drop() error {
	return m.collection.Drop(m.ctx)
}

func (m *MongoStorage) GetStorageProviderName() string {
	return "MongoDB"
}

func (m *MongoStorage) Close() error {
	if m.client == nil {
		return nil
	}

	return m.client.Disconnect(m.ctx)
}
