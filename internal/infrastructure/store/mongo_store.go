package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements DocumentStore on one MongoDB collection keyed by path.
// Subscriptions use change streams and need a replica set.
type MongoStore struct {
	coll *mongo.Collection
}

// mongoDocument represents the MongoDB item structure
type mongoDocument struct {
	Path       string    `bson:"_id"`
	Collection string    `bson:"collection"`
	DocID      string    `bson:"doc_id"`
	Data       bson.M    `bson:"data"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// ConnectMongo connects to MongoDB and returns the documents collection
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}
	return client, client.Database(database).Collection("documents"), nil
}

// EnsureIndexes creates the collection index used by GetAll
func (ms *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := ms.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collection", Value: 1}, {Key: "doc_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get retrieves a document by path
func (ms *MongoStore) Get(ctx context.Context, path string) (Document, bool, error) {
	if _, _, err := Split(path); err != nil {
		return Document{}, false, err
	}

	var md mongoDocument
	err := ms.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&md)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	doc, err := md.toDocument()
	if err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

// GetAll retrieves all documents of a collection
func (ms *MongoStore) GetAll(ctx context.Context, collectionPath string) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}})
	cursor, err := ms.coll.Find(ctx, bson.M{"collection": collectionPath}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var items []mongoDocument
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	docs := make([]Document, 0, len(items))
	for _, md := range items {
		doc, err := md.toDocument()
		if err != nil {
			log.Printf("[Store] Skipping undecodable document %s: %v", md.Path, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Put creates or replaces a document
func (ms *MongoStore) Put(ctx context.Context, path string, data any) error {
	collection, id, err := Split(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}
	var body bson.M
	if err := bson.UnmarshalExtJSON(raw, false, &body); err != nil {
		return fmt.Errorf("failed to convert document %s: %w", path, err)
	}

	md := mongoDocument{
		Path:       path,
		Collection: collection,
		DocID:      id,
		Data:       body,
		UpdatedAt:  time.Now(),
	}
	_, err = ms.coll.ReplaceOne(ctx, bson.M{"_id": path}, md, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Update sets top-level fields of an existing document
func (ms *MongoStore) Update(ctx context.Context, path string, patch map[string]any) error {
	if _, _, err := Split(path); err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	for key, value := range patch {
		set["data."+key] = value
	}

	res, err := ms.coll.UpdateOne(ctx, bson.M{"_id": path}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return nil
}

// Delete removes a document
func (ms *MongoStore) Delete(ctx context.Context, path string) error {
	if _, _, err := Split(path); err != nil {
		return err
	}
	if _, err := ms.coll.DeleteOne(ctx, bson.M{"_id": path}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Subscribe watches the change stream for direct children of the collection
func (ms *MongoStore) Subscribe(ctx context.Context, collectionPath string) (*Subscription, error) {
	pattern := "^" + regexp.QuoteMeta(collectionPath+"/") + "[^/]+$"
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "documentKey._id", Value: bson.D{{Key: "$regex", Value: pattern}}},
		}}},
	}

	subCtx, cancel := context.WithCancel(ctx)
	stream, err := ms.coll.Watch(subCtx, pipeline)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ch := make(chan []Document, 1)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())

		refresh := func() {
			docs, err := ms.GetAll(subCtx, collectionPath)
			if err != nil {
				log.Printf("[Store] Failed to refresh %s: %v", collectionPath, err)
				return
			}
			offer(ch, docs)
		}

		refresh()
		for stream.Next(subCtx) {
			refresh()
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			log.Printf("[Store] Change stream for %s ended: %v", collectionPath, err)
		}
	}()

	return NewSubscription(ch, cancel), nil
}

func (md mongoDocument) toDocument() (Document, error) {
	raw, err := bson.MarshalExtJSON(md.Data, false, false)
	if err != nil {
		return Document{}, fmt.Errorf("failed to convert document %s: %w", md.Path, err)
	}
	return Document{ID: md.DocID, Path: md.Path, Data: raw}, nil
}
