package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/storage"
)

const (
	historyDepth   = 10
	schemaVersion  = 1
	connectTimeout = 10 * time.Second

	blobsCollection = "blobs"
	metaCollection  = "meta"
)

// Store keeps one document per blob key. Previous values live in the
// document's history array, newest first.
type Store struct {
	uri    string
	dbName string
	client *mongo.Client
}

type blobDocument struct {
	Key       string         `bson:"_id"`
	Data      []byte         `bson:"data"`
	Codec     string         `bson:"codec"`
	UpdatedAt time.Time      `bson:"updated_at"`
	History   []historyEntry `bson:"history,omitempty"`
}

type historyEntry struct {
	Data       []byte    `bson:"data"`
	Codec      string    `bson:"codec"`
	ReplacedAt time.Time `bson:"replaced_at"`
}

type metaDocument struct {
	ID      string `bson:"_id"`
	Version int    `bson:"version"`
}

// NewStore uses the database named in the URI path, or "habits" when none is given.
func NewStore(uri string) *Store {
	return &Store{uri: uri, dbName: databaseName(uri)}
}

// IsURI reports whether target looks like a MongoDB connection URI.
func IsURI(target string) bool {
	return strings.HasPrefix(target, "mongodb://") || strings.HasPrefix(target, "mongodb+srv://")
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return constants.AppName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return constants.AppName
}

func (s *Store) connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	s.client = client
	return nil
}

func (s *Store) blobs() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(blobsCollection)
}

func (s *Store) meta() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(metaCollection)
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	_, err := s.meta().ReplaceOne(ctx,
		bson.M{"_id": "schema"},
		metaDocument{ID: "schema", Version: schemaVersion},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	var doc metaDocument
	err := s.meta().FindOne(ctx, bson.M{"_id": "schema"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if doc.Version != schemaVersion {
		return fmt.Errorf("unsupported MongoDB schema version %d (expected %d)", doc.Version, schemaVersion)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}

func (s *Store) find(ctx context.Context, key string) (blobDocument, error) {
	var doc blobDocument
	err := s.blobs().FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return blobDocument{}, storage.ErrNotFound
	}
	if err != nil {
		return blobDocument{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return doc, nil
}

func (s *Store) replace(ctx context.Context, doc blobDocument) error {
	_, err := s.blobs().ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", doc.Key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (storage.Blob, error) {
	if s.client == nil {
		return storage.Blob{}, fmt.Errorf("storage not loaded")
	}
	doc, err := s.find(ctx, key)
	if err != nil {
		return storage.Blob{}, err
	}
	return storage.Blob{Data: doc.Data, Codec: doc.Codec, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *Store) Put(ctx context.Context, key string, blob storage.Blob) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	if blob.UpdatedAt.IsZero() {
		blob.UpdatedAt = time.Now().UTC()
	}

	prev, err := s.find(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return s.replace(ctx, nextDocument(key, prev, err == nil, blob))
}

// nextDocument builds the document that replaces prev, archiving prev's value.
func nextDocument(key string, prev blobDocument, hasPrev bool, blob storage.Blob) blobDocument {
	doc := blobDocument{
		Key:       key,
		Data:      blob.Data,
		Codec:     blob.Codec,
		UpdatedAt: blob.UpdatedAt,
	}
	if !hasPrev {
		return doc
	}
	doc.History = append([]historyEntry{{Data: prev.Data, Codec: prev.Codec, ReplacedAt: blob.UpdatedAt}}, prev.History...)
	if len(doc.History) > historyDepth {
		doc.History = doc.History[:historyDepth]
	}
	return doc
}

// Revert restores the most recently replaced value of key.
func (s *Store) Revert(ctx context.Context, key string) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	doc, err := s.find(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ErrNoHistory
	}
	if err != nil {
		return err
	}
	if len(doc.History) == 0 {
		return storage.ErrNoHistory
	}

	last := doc.History[0]
	doc.Data, doc.Codec, doc.UpdatedAt = last.Data, last.Codec, time.Now().UTC()
	doc.History = doc.History[1:]
	if err := s.replace(ctx, doc); err != nil {
		return err
	}
	logger.Info("Reverted blob to previous version", "key", key, "replaced_at", last.ReplacedAt)
	return nil
}

func (s *Store) GetConfigPath() string {
	return "mongodb/" + s.dbName
}
