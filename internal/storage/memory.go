// internal/storage/memory.go
// Package storage provides the in-memory document store backing the
// /documents endpoint. Entries are keyed by content hash and bounded by count.
package storage

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned when no document is stored under the requested id
var ErrNotFound = errors.New("not found")

// DocumentStore holds recovered document bytes by id.
type DocumentStore interface {
	Put(ctx context.Context, id string, data []byte) error // Store (or overwrite) a document
	Get(ctx context.Context, id string) ([]byte, error)    // Fetch a copy of a document
	Len() int                                              // Number of documents currently held
}

// memory implements DocumentStore on a least-recently-used cache.
// Identical content maps to the same id, so overwriting is harmless.
type memory struct {
	docs *lru.Cache[string, []byte]
}

// NewMemory creates a store holding at most size documents. onEvict, if
// non-nil, is called with the id of each document pushed out by a newer one.
func NewMemory(size int, onEvict func(id string)) (DocumentStore, error) {
	cache, err := lru.NewWithEvict(size, func(id string, _ []byte) {
		if onEvict != nil {
			onEvict(id)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}
	return &memory{docs: cache}, nil
}

func (m *memory) Put(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return errors.New("document id is required")
	}
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	m.docs.Add(id, dataCopy)
	return nil
}

func (m *memory) Get(ctx context.Context, id string) ([]byte, error) {
	data, ok := m.docs.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return dataCopy, nil
}

func (m *memory) Len() int {
	return m.docs.Len()
}
