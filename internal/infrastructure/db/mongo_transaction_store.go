package db

import (
	"context"
	"fmt"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BSON binary subtype for RFC 4122 UUIDs
const uuidBinarySubtype byte = 0x04

// mongoDocument is the stored shape of one transaction
type mongoDocument struct {
	ID          primitive.Binary     `bson:"_id"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        string               `bson:"date"`
	Description string               `bson:"description"`
	Type        string               `bson:"type"`
}

// MongoConfig configures the remote document store
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoTransactionStore keeps one document per transaction. The logical id is
// stored as the native _id in UUID binary form.
type MongoTransactionStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     logger.Logger
}

// OpenMongoTransactionStore connects to MongoDB and verifies the connection
func OpenMongoTransactionStore(ctx context.Context, cfg MongoConfig, log logger.Logger) (*MongoTransactionStore, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info("Mongo store connected", map[string]interface{}{
		"database":   cfg.Database,
		"collection": cfg.Collection,
	})

	return &MongoTransactionStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    cfg.Timeout,
		logger:     log.WithField("store", "mongo"),
	}, nil
}

// List returns every document, newest first
func (s *MongoTransactionStore) List(ctx context.Context) ([]entity.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var docs []mongoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	txs := make([]entity.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := fromMongoDocument(doc)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// Insert stores tx as a new document
func (s *MongoTransactionStore) Insert(ctx context.Context, tx entity.Transaction) error {
	doc, err := toMongoDocument(tx)
	if err != nil {
		return err
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	s.logger.Debug("Transaction inserted", map[string]interface{}{"id": tx.ID})
	return nil
}

// Update sets the patched fields of the document with the given id
func (s *MongoTransactionStore) Update(ctx context.Context, id string, patch entity.TransactionPatch) (bool, error) {
	native, ok := mongoID(id)
	if !ok {
		return false, nil
	}
	filter := bson.D{{Key: "_id", Value: native}}

	set, err := mongoSet(patch)
	if err != nil {
		return false, err
	}

	if len(set) == 0 {
		n, err := s.collection.CountDocuments(ctx, filter)
		if err != nil {
			return false, fmt.Errorf("failed to look up transaction: %w", err)
		}
		return n > 0, nil
	}

	res, err := s.collection.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}

	return res.MatchedCount > 0, nil
}

// Delete removes the document with the given id
func (s *MongoTransactionStore) Delete(ctx context.Context, id string) (bool, error) {
	native, ok := mongoID(id)
	if !ok {
		return false, nil
	}

	res, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: native}})
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	return res.DeletedCount > 0, nil
}

// Close disconnects the client
func (s *MongoTransactionStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mongoID maps a logical id to its native _id; ids that are not UUIDs cannot
// exist in the collection
func mongoID(id string) (primitive.Binary, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return primitive.Binary{}, false
	}
	return primitive.Binary{Subtype: uuidBinarySubtype, Data: u[:]}, true
}

func logicalID(native primitive.Binary) (string, error) {
	if native.Subtype != uuidBinarySubtype {
		return "", fmt.Errorf("unexpected _id subtype 0x%02x", native.Subtype)
	}
	u, err := uuid.FromBytes(native.Data)
	if err != nil {
		return "", fmt.Errorf("invalid _id: %w", err)
	}
	return u.String(), nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode amount %s: %w", d, err)
	}
	return v, nil
}

func toMongoDocument(tx entity.Transaction) (mongoDocument, error) {
	native, ok := mongoID(tx.ID)
	if !ok {
		return mongoDocument{}, fmt.Errorf("transaction id %q is not a UUID", tx.ID)
	}

	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return mongoDocument{}, err
	}

	return mongoDocument{
		ID:          native,
		Amount:      amount,
		Date:        tx.Date.String(),
		Description: tx.Description,
		Type:        string(tx.Type),
	}, nil
}

func fromMongoDocument(doc mongoDocument) (entity.Transaction, error) {
	id, err := logicalID(doc.ID)
	if err != nil {
		return entity.Transaction{}, err
	}

	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("invalid amount in document %s: %w", id, err)
	}

	date, err := entity.ParseDate(doc.Date)
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("invalid date in document %s: %w", id, err)
	}

	return entity.Transaction{
		ID:          id,
		Amount:      amount,
		Date:        date,
		Description: doc.Description,
		Type:        entity.TransactionType(doc.Type),
	}, nil
}

func mongoSet(p entity.TransactionPatch) (bson.D, error) {
	set := bson.D{}
	if p.Amount != nil {
		amount, err := toDecimal128(*p.Amount)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "amount", Value: amount})
	}
	if p.Date != nil {
		set = append(set, bson.E{Key: "date", Value: p.Date.String()})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.Type != nil {
		set = append(set, bson.E{Key: "type", Value: string(*p.Type)})
	}
	return set, nil
}
