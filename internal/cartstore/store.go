package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/metrics"
)

// Store is the durable, change-notified holder of shopping carts. It
// fails open: absent or malformed data loads as an empty cart, and a
// failing storage backend degrades the store to in-memory operation
// for the remainder of the session. Neither condition surfaces to the
// caller.
type Store struct {
	storage  Storage
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.CartMetrics

	mu       sync.Mutex
	degraded bool
	fallback *MemoryStorage
	versions map[string]int64
}

// NewStore wires a cart store over the provided backend and notifier.
func NewStore(storage Storage, notifier Notifier, logg *logger.Logger, m *metrics.CartMetrics) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage backend required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Store{
		storage:  storage,
		notifier: notifier,
		logg:     logg,
		metrics:  m,
		fallback: NewMemoryStorage(),
		versions: map[string]int64{},
	}, nil
}

// Load reads the cart stored under key. Absent and malformed carts
// load as empty; storage failures flip the store into degraded mode
// and load whatever the in-memory fallback holds.
func (s *Store) Load(ctx context.Context, key string) []LineItem {
	data, err := s.backend().Read(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		s.degrade(ctx, err)
		data, err = s.fallback.Read(ctx, key)
		if err != nil {
			return nil
		}
	}

	envelope, ok := decodeEnvelope(data)
	if !ok {
		if s.logg != nil {
			s.logg.Warn(ctx, "malformed cart data, treating as empty cart")
		}
		return nil
	}

	s.mu.Lock()
	if envelope.Version > s.versions[key] {
		s.versions[key] = envelope.Version
	}
	s.mu.Unlock()

	return envelope.Items
}

// Save serializes items under key and notifies subscribers. A failing
// write degrades the store to in-memory operation; the saved cart is
// still observable through Load for the rest of the session, it just
// will not survive a restart. Save never reports failure to the
// caller.
func (s *Store) Save(ctx context.Context, key string, items []LineItem) {
	s.mu.Lock()
	version := s.versions[key] + 1
	s.versions[key] = version
	s.mu.Unlock()

	envelope := Envelope{Version: version, Items: items}
	data, err := json.Marshal(envelope)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "failed to serialize cart", err)
		}
		return
	}

	if err := s.backend().Write(ctx, key, data); err != nil {
		s.degrade(ctx, err)
		_ = s.fallback.Write(ctx, key, data)
	}

	change := Change{CartKey: key, Version: version, Items: items}
	if err := s.notifier.Publish(ctx, change); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to publish cart change notification")
	}
}

// Subscribe registers fn to run whenever the cart stored under key
// changes due to an external write. Subscribers receive the full new
// cart and must replace, not diff.
func (s *Store) Subscribe(key string, fn func([]LineItem)) (cancel func()) {
	return s.notifier.Subscribe(key, func(change Change) {
		fn(change.Items)
	})
}

// Degraded reports whether the store has fallen back to in-memory
// operation.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) backend() Storage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return s.fallback
	}
	return s.storage
}

func (s *Store) degrade(ctx context.Context, cause error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()

	if already {
		return
	}
	if s.logg != nil {
		s.logg.Error(ctx, "cart storage unavailable, degrading to in-memory cart", cause)
	}
	s.metrics.IncStorageDegradation()
}

// decodeEnvelope parses the stored payload. Carts written before the
// versioned envelope existed were bare line-item arrays; those still
// load, at version zero.
func decodeEnvelope(data []byte) (Envelope, bool) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err == nil {
		return envelope, true
	}
	var legacy []LineItem
	if err := json.Unmarshal(data, &legacy); err == nil {
		return Envelope{Items: legacy}, true
	}
	return Envelope{}, false
}
