package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoCollection = "documents"

// MongoStore keeps every document in one MongoDB collection keyed by path.
// Batch needs a replica set or sharded cluster for multi-document transactions.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

var _ Store = (*MongoStore)(nil)

type mongoDoc struct {
	Path      string    `bson:"_id"`
	Parent    string    `bson:"parent"`
	DocID     string    `bson:"docId"`
	Data      bson.M    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// OpenMongo connects to uri and uses the named database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "parent", Value: 1}, {Key: "docId", Value: 1}}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, path string) (*Doc, error) {
	if _, _, err := SplitDoc(path); err != nil {
		return nil, err
	}

	var md mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&md)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	d := md.toDoc()
	return &d, nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, opts QueryOpts) ([]Doc, error) {
	if err := checkQuery(collection, opts); err != nil {
		return nil, err
	}

	filter := bson.M{"parent": collection}
	for _, f := range opts.Where {
		filter["data."+f.Field] = f.Value
	}
	if len(opts.IDs) > 0 {
		filter["docId"] = bson.M{"$in": opts.IDs}
	}

	// Mongo sorts missing fields first, so field ordering happens in memory.
	findOpts := options.Find().SetSort(bson.D{{Key: "docId", Value: 1}})
	if opts.OrderBy == "" && opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	var mds []mongoDoc
	if err := cur.All(ctx, &mds); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Doc, 0, len(mds))
	for _, md := range mds {
		docs = append(docs, md.toDoc())
	}
	return applyQuery(docs, QueryOpts{OrderBy: opts.OrderBy, Limit: opts.Limit}), nil
}

func (s *MongoStore) SetMerge(ctx context.Context, path string, fields map[string]any) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	return s.merge(ctx, path, fields)
}

// Batch applies the writes in a multi-document transaction.
func (s *MongoStore) Batch(ctx context.Context, writes []Write) error {
	for _, w := range writes {
		if _, _, err := SplitDoc(w.Path); err != nil {
			return err
		}
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		for _, w := range writes {
			var err error
			switch w.Kind {
			case WriteDelete:
				err = s.remove(ctx, w.Path)
			default:
				err = s.merge(ctx, w.Path, w.Fields)
			}
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, path string) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	return s.remove(ctx, path)
}

func (s *MongoStore) DeleteCollection(ctx context.Context, collection string) error {
	if err := CheckCollection(collection); err != nil {
		return err
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"parent": collection},
		bson.M{"parent": bson.M{"$regex": "^" + regexp.QuoteMeta(collection+"/")}},
	}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) merge(ctx context.Context, path string, fields map[string]any) error {
	parent, id, _ := SplitDoc(path)

	set := bson.M{"updatedAt": s.now().UTC()}
	flatten("data", fields, set)
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"parent": parent, "docId": id},
	}
	if len(fields) == 0 {
		update["$setOnInsert"] = bson.M{"parent": parent, "docId": id, "data": bson.M{}}
	}

	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": path}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

func (s *MongoStore) remove(ctx context.Context, path string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": path}); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// flatten turns nested maps into dotted $set keys so sibling fields survive.
func flatten(prefix string, fields map[string]any, out bson.M) {
	for k, v := range fields {
		key := prefix + "." + k
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			flatten(key, m, out)
			continue
		}
		out[key] = v
	}
}

func (md mongoDoc) toDoc() Doc {
	fields, _ := normalize(md.Data).(map[string]any)
	if fields == nil {
		fields = map[string]any{}
	}
	return Doc{ID: md.DocID, Path: md.Path, Fields: fields}
}

// normalize converts decoded BSON values into the plain Go types the other
// backends produce.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case int32:
		return int(t)
	case int64:
		return int(t)
	case bson.DateTime:
		return t.Time().UTC()
	}
	return v
}
