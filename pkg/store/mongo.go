package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultMongoDatabase is used when the connection string names no database.
	DefaultMongoDatabase = "shadergraph"
	// MongoCollection holds one document per project.
	MongoCollection = "projects"
)

// MongoStore keeps projects in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// projectRecord is the stored form. Listing metadata is copied out of the
// project so it can be inspected in the database.
type projectRecord struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name,omitempty"`
	Created  string `bson:"created,omitempty"`
	Modified string `bson:"modified,omitempty"`
	Data     []byte `bson:"data"`
}

func recordFor(key string, data []byte) projectRecord {
	e := entryFor(key, data)
	return projectRecord{
		ID:       storageKey(key),
		Name:     e.Name,
		Created:  e.Created,
		Modified: e.Modified,
		Data:     data,
	}
}

// mongoDatabase returns the database named by a connection string's path.
func mongoDatabase(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db
	}
	return DefaultMongoDatabase
}

// NewMongoStore connects to uri (mongodb://host:port/db) and pings the
// server, retrying while it is unreachable.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	coll := client.Database(mongoDatabase(uri)).Collection(MongoCollection)
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	rec := recordFor(key, data)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var rec projectRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": storageKey(key)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(KeyPrefix)}}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	for cur.Next(ctx) {
		var rec projectRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		key, _ := userKey(rec.ID)
		entries = append(entries, entryFor(key, rec.Data))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": storageKey(key)})
	return err
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
