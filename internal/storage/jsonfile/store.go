// Package jsonfile keeps all blobs in a single human-readable JSON document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/habits/internal/storage"
)

const documentVersion = 1

type document struct {
	Version int              `json:"version"`
	Blobs   map[string]entry `json:"blobs"`
}

// entry holds JSON payloads inline so the file stays readable. Other codecs
// are kept as base64 in Raw.
type entry struct {
	Codec     string          `json:"codec"`
	UpdatedAt time.Time       `json:"updated_at"`
	Data      json.RawMessage `json:"data,omitempty"`
	Raw       []byte          `json:"raw,omitempty"`
}

type Store struct {
	path string

	mu  sync.Mutex
	doc *document
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// IsPath reports whether target names a JSON document.
func IsPath(target string) bool {
	return strings.EqualFold(filepath.Ext(target), ".json")
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.read()
	}

	s.doc = &document{Version: documentVersion, Blobs: make(map[string]entry)}
	return s.save()
}

func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc != nil {
		return nil
	}
	return s.read()
}

// Reload discards the in-memory document and reads the file again.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > documentVersion {
		return fmt.Errorf("storage version %d is newer than supported version %d", doc.Version, documentVersion)
	}
	if doc.Blobs == nil {
		doc.Blobs = make(map[string]entry)
	}
	s.doc = doc
	return nil
}

// save writes to a temporary file in the same directory and renames it over the document.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".habits-*.json")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (storage.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return storage.Blob{}, fmt.Errorf("storage not loaded")
	}
	e, ok := s.doc.Blobs[key]
	if !ok {
		return storage.Blob{}, storage.ErrNotFound
	}

	blob := storage.Blob{Codec: e.Codec, UpdatedAt: e.UpdatedAt}
	if len(e.Raw) > 0 {
		blob.Data = append([]byte(nil), e.Raw...)
	} else {
		var buf bytes.Buffer
		if err := json.Compact(&buf, e.Data); err != nil {
			return storage.Blob{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		blob.Data = buf.Bytes()
	}
	return blob, nil
}

func (s *Store) Put(ctx context.Context, key string, blob storage.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	if blob.UpdatedAt.IsZero() {
		blob.UpdatedAt = time.Now().UTC()
	}

	e := entry{Codec: blob.Codec, UpdatedAt: blob.UpdatedAt}
	if (blob.Codec == "" || blob.Codec == storage.CodecJSON) && json.Valid(blob.Data) {
		e.Data = append(json.RawMessage(nil), blob.Data...)
	} else {
		e.Raw = append([]byte(nil), blob.Data...)
	}

	prev, had := s.doc.Blobs[key]
	s.doc.Blobs[key] = e
	if err := s.save(); err != nil {
		if had {
			s.doc.Blobs[key] = prev
		} else {
			delete(s.doc.Blobs, key)
		}
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}
