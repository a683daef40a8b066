package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/cortinas/internal/repository/remote"
)

// Repository implements remote.Backend on MongoDB: one collection per table,
// the record id stored as _id.
type Repository struct {
	client *mongo.Client
	dbName string
}

var _ remote.Backend = (*Repository)(nil)

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri string, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{client: client, dbName: dbName}, nil
}

func (r *Repository) collection(table string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(table)
}

// SelectAll returns every document of the table ordered by id.
func (r *Repository) SelectAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection(table).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", table, err)
	}

	rows := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		row, err := fromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("convert %s document: %w", table, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SelectOne returns the document with the given id.
func (r *Repository) SelectOne(ctx context.Context, table, id string) (json.RawMessage, error) {
	var doc bson.M
	err := r.collection(table).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, remote.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s/%s: %w", table, id, err)
	}
	return fromDocument(doc)
}

// Insert stores the record, minting an id when it has none.
func (r *Repository) Insert(ctx context.Context, table string, record json.RawMessage) (json.RawMessage, error) {
	doc, err := toDocument(record)
	if err != nil {
		return nil, fmt.Errorf("convert %s record: %w", table, err)
	}
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	doc["id"] = id
	doc["_id"] = id

	if _, err := r.collection(table).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return fromDocument(doc)
}

// Update sets the patched fields on the document with the given id.
func (r *Repository) Update(ctx context.Context, table, id string, patch map[string]any) error {
	return r.UpdateWhere(ctx, table, id, nil, patch)
}

// UpdateWhere sets the patched fields when the document with the given id
// also matches every field of match.
func (r *Repository) UpdateWhere(ctx context.Context, table, id string, match, patch map[string]any) error {
	set, err := mapToDocument(patch)
	if err != nil {
		return fmt.Errorf("convert %s patch: %w", table, err)
	}
	delete(set, "id")

	filter, err := mapToDocument(match)
	if err != nil {
		return fmt.Errorf("convert %s filter: %w", table, err)
	}
	delete(filter, "id")
	filter["_id"] = id

	res, err := r.collection(table).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", table, id, err)
	}
	if res.MatchedCount == 0 {
		return remote.ErrNotFound
	}
	return nil
}

// Delete removes the document with the given id.
func (r *Repository) Delete(ctx context.Context, table, id string) error {
	if _, err := r.collection(table).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, id, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// toDocument converts a JSON object into a BSON document through relaxed
// extended JSON, so numbers, strings and nested arrays keep their shape.
func toDocument(record []byte) (bson.M, error) {
	doc := bson.M{}
	if err := bson.UnmarshalExtJSON(record, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func mapToDocument(m map[string]any) (bson.M, error) {
	if len(m) == 0 {
		return bson.M{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return toDocument(data)
}

// fromDocument is the inverse of toDocument; _id is folded back into id.
func fromDocument(doc bson.M) (json.RawMessage, error) {
	out := bson.M{}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	if _, ok := out["id"]; !ok {
		if id, ok := doc["_id"]; ok {
			out["id"] = fmt.Sprint(id)
		}
	}
	data, err := bson.MarshalExtJSON(out, false, false)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
