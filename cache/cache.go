// Package cache keeps translations of individual text runs so repeated
// runs over the same resources do not call the remote service again.
//
// Service wraps any service.Service; stores are an in-memory LRU and a
// SQLite database.
package cache

import (
	"context"
	"errors"

	"github.com/minios-linux/resxlate/service"
)

// Key identifies a cached translation.
type Key struct {
	Text     string
	Source   string
	Target   string
	Provider string
}

// Store persists translations.
type Store interface {
	// Get returns the cached translation. ok is false on a miss.
	Get(ctx context.Context, k Key) (translation string, ok bool, err error)
	Put(ctx context.Context, k Key, translation string) error
	Close() error
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int
	Misses int
}

// Service is a caching service.Service decorator.
type Service struct {
	next     service.Service
	store    Store
	provider string
	stats    Stats
	// OnError receives store failures. They never fail a translation.
	OnError func(err error)
}

// New returns a Service that looks translations up in store before asking
// next. provider namespaces the entries so backends do not share them.
func New(next service.Service, store Store, provider string) *Service {
	return &Service{next: next, store: store, provider: provider}
}

// Translate implements service.Service.
func (s *Service) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	k := Key{Text: text, Source: service.SourceOrAuto(sourceLang), Target: targetLang, Provider: s.provider}

	got, ok, err := s.store.Get(ctx, k)
	if err != nil {
		s.reportError(err)
	} else if ok {
		s.stats.Hits++
		return got, nil
	}
	s.stats.Misses++

	out, err := s.next.Translate(ctx, text, targetLang, sourceLang)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, k, out); err != nil {
		s.reportError(err)
	}
	return out, nil
}

// Stats returns the lookup counters.
func (s *Service) Stats() Stats { return s.stats }

func (s *Service) reportError(err error) {
	if s.OnError != nil && !errors.Is(err, context.Canceled) {
		s.OnError(err)
	}
}
