package sink

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// document is the BSON shape written for every record, regardless of
// parser type: the payload itself is marshaled through bson's generic
// struct encoding, so a parser's output type just needs normal field
// tags (or none) to control its shape.
type document[T any] struct {
	Timestamp int64       `bson:"timestamp"`
	IP        string      `bson:"ip"`
	Port      uint16      `bson:"port"`
	Response  interface{} `bson:"response"`
}

// Mongo is a Sink backed by a single collection.
type Mongo[T any] struct {
	collection *mongo.Collection
}

// DialMongo connects to a MongoDB deployment and returns a Sink bound
// to database.collection.
func DialMongo[T any](ctx context.Context, url, database, collection string) (*Mongo[T], error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("sink: connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("sink: pinging mongo: %w", err)
	}
	return &Mongo[T]{collection: client.Database(database).Collection(collection)}, nil
}

// Write inserts one record as a BSON document.
func (m *Mongo[T]) Write(ctx context.Context, rec Record[T]) error {
	_, err := m.collection.InsertOne(ctx, document[T]{
		Timestamp: rec.Timestamp.UnixMilli(),
		IP:        rec.IP.String(),
		Port:      rec.Port,
		Response:  rec.Payload,
	})
	return err
}
