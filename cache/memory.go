package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the number of entries MemoryStore keeps by default.
const DefaultMemorySize = 4096

// MemoryStore is an in-process LRU store.
type MemoryStore struct {
	lru *lru.Cache[Key, string]
}

// NewMemoryStore returns a store holding up to size entries
// (DefaultMemorySize when size <= 0).
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[Key, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &MemoryStore{lru: c}, nil
}

func (m *MemoryStore) Get(_ context.Context, k Key) (string, bool, error) {
	v, ok := m.lru.Get(k)
	return v, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, k Key, translation string) error {
	m.lru.Add(k, translation)
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryStore) Len() int { return m.lru.Len() }

func (m *MemoryStore) Close() error {
	m.lru.Purge()
	return nil
}
