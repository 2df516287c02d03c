// Package mongo implements the node store on MongoDB, one document per
// node with an optional parent reference.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	pkgerrors "nodetree/pkg/errors"
)

// nodeDocument is the stored form of a node. A nil Parent marks a root.
type nodeDocument struct {
	ID        bson.ObjectID  `bson:"_id"`
	Name      string         `bson:"name"`
	Parent    *bson.ObjectID `bson:"parent"`
	CreatedAt time.Time      `bson:"createdAt"`
}

func (d nodeDocument) toEntity() (*entities.Node, error) {
	parent := valueobjects.NodeID{}
	if d.Parent != nil {
		parent = valueobjects.OptionalNodeID(d.Parent.Hex())
	}
	return entities.ReconstructNode(
		valueobjects.OptionalNodeID(d.ID.Hex()),
		d.Name,
		parent,
		d.CreatedAt.UTC(),
	)
}

// objectID converts a node id. Ids that are not valid ObjectIDs cannot
// exist in the collection, so callers treat them as absent.
func objectID(id valueobjects.NodeID) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id.String())
	if err != nil {
		return bson.ObjectID{}, false
	}
	return oid, true
}

var creationOrder = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

// NodeStore implements ports.NodeStore on a MongoDB collection
type NodeStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
	now        func() time.Time
}

// Connect opens a client for uri and returns a store on database/collection.
func Connect(ctx context.Context, uri, database, collection string, logger *zap.Logger) (*NodeStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := NewNodeStore(client, client.Database(database).Collection(collection), logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Connected to MongoDB",
		zap.String("database", database),
		zap.String("collection", collection),
	)
	return store, nil
}

// NewNodeStore wraps an existing collection
func NewNodeStore(client *mongo.Client, collection *mongo.Collection, logger *zap.Logger) *NodeStore {
	return &NodeStore{
		client:     client,
		collection: collection,
		logger:     logger,
		// BSON dates carry millisecond precision
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the index used by child lookups
func (s *NodeStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "parent", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("parent_createdAt"),
	})
	if err != nil {
		return fmt.Errorf("failed to create parent index: %w", err)
	}
	return nil
}

// Create inserts a new node document
func (s *NodeStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	doc := nodeDocument{
		ID:        bson.NewObjectID(),
		Name:      name,
		CreatedAt: s.now(),
	}
	if !parent.IsZero() {
		oid, ok := objectID(parent)
		if !ok {
			return nil, pkgerrors.NewValidationError("Invalid parent node ID")
		}
		doc.Parent = &oid
	}

	node, err := doc.toEntity()
	if err != nil {
		return nil, err
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, pkgerrors.NewDatabaseError("insertOne", err)
	}
	return node, nil
}

// FindAll returns every node sorted by creation
func (s *NodeStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	return s.find(ctx, bson.M{})
}

// FindByID loads one node
func (s *NodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ports.ErrNodeNotFound
	}

	var doc nodeDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNodeNotFound
		}
		return nil, pkgerrors.NewDatabaseError("findOne", err)
	}
	return doc.toEntity()
}

// FindChildren returns the direct children of parentID
func (s *NodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	if parentID.IsZero() {
		return s.find(ctx, bson.M{"parent": nil})
	}
	oid, ok := objectID(parentID)
	if !ok {
		return []*entities.Node{}, nil
	}
	return s.find(ctx, bson.M{"parent": oid})
}

// DeleteByID removes one node; unknown ids are ignored
func (s *NodeStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return pkgerrors.NewDatabaseError("deleteOne", err)
	}
	return nil
}

// Rename sets the node's name and returns the updated document
func (s *NodeStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ports.ErrNodeNotFound
	}

	var doc nodeDocument
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"name": name}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNodeNotFound
		}
		return nil, pkgerrors.NewDatabaseError("findOneAndUpdate", err)
	}
	return doc.toEntity()
}

// Ping checks connectivity to the primary
func (s *NodeStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return pkgerrors.NewDatabaseError("ping", err)
	}
	return nil
}

// Close disconnects the client
func (s *NodeStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *NodeStore) find(ctx context.Context, filter bson.M) ([]*entities.Node, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(creationOrder))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("find", err)
	}

	var docs []nodeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, pkgerrors.NewDatabaseError("find", err)
	}

	nodes := make([]*entities.Node, 0, len(docs))
	for _, doc := range docs {
		node, err := doc.toEntity()
		if err != nil {
			s.logger.Error("Malformed node document",
				zap.String("nodeID", doc.ID.Hex()),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: document %s: %v", ports.ErrMalformedNode, doc.ID.Hex(), err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

var (
	_ ports.NodeStore     = (*NodeStore)(nil)
	_ ports.HealthChecker = (*NodeStore)(nil)
)
