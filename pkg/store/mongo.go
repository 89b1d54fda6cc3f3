package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/observability"
)

// MongoStore persists snapshots in a MongoDB collection, one document per
// snapshot name.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// snapshotDoc is the stored document shape.
type snapshotDoc struct {
	Name      string          `bson:"name"`
	Entities  []entity.Entity `bson:"entities"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and returns a store over the given
// database and collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping %s", uri)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Load returns the named snapshot or ErrNotFound.
func (s *MongoStore) Load(ctx context.Context, name string) (*entity.Collection, error) {
	started := time.Now()
	var doc snapshotDoc
	err := s.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		observability.Store().OnLoad(ctx, name, 0, time.Since(started), ErrNotFound)
		return nil, ErrNotFound
	}
	if err != nil {
		observability.Store().OnLoad(ctx, name, 0, time.Since(started), err)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load snapshot %s", name)
	}
	c, _ := entity.FromSlice(doc.Entities)
	observability.Store().OnLoad(ctx, name, c.Len(), time.Since(started), nil)
	return c, nil
}

// Save upserts a snapshot under a name.
func (s *MongoStore) Save(ctx context.Context, name string, c *entity.Collection) error {
	started := time.Now()
	doc := snapshotDoc{Name: name, Entities: c.All(), UpdatedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"name": name}, doc, options.Replace().SetUpsert(true))
	observability.Store().OnSave(ctx, name, c.Len(), time.Since(started), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save snapshot %s", name)
	}
	return nil
}

// List returns the stored snapshot names, sorted.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1}).
		SetSort(bson.M{"name": 1})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var doc struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode snapshot name")
		}
		names = append(names, doc.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "iterate snapshots")
	}
	return names, nil
}

// Delete removes a snapshot. Missing snapshots are not an error.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"name": name}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
