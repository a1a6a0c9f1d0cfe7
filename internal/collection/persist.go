package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/verte-zerg/cardbook/internal/model"
	"github.com/verte-zerg/cardbook/internal/store"
)

// DefaultNamespace prefixes storage keys when no namespace is configured.
const DefaultNamespace = "cardbook"

// StorageKey scopes a collection to one catalog so expansions never collide.
func StorageKey(namespace, expansion string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + "_" + expansion
}

// Persister reads and writes the full collection under one key.
type Persister struct {
	backend store.Backend
	key     string
	logger  *slog.Logger
}

// NewPersister binds a backend to a storage key.
func NewPersister(backend store.Backend, key string, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{backend: backend, key: key, logger: logger}
}

// Key returns the storage key.
func (p *Persister) Key() string {
	return p.key
}

// Load returns the stored collection. Absent or malformed values yield an empty collection;
// only backend failures are returned as errors.
func (p *Persister) Load(ctx context.Context) (model.Collection, error) {
	raw, ok, err := p.backend.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.key, err)
	}
	if !ok {
		return model.Collection{}, nil
	}
	c, err := decode(raw)
	if err != nil {
		p.logger.Warn("discarding malformed stored collection", "key", p.key, "error", err)
		return model.Collection{}, nil
	}
	return c, nil
}

// Save replaces the stored collection.
func (p *Persister) Save(ctx context.Context, c model.Collection) error {
	if c == nil {
		c = model.Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := p.backend.Set(ctx, p.key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.key, err)
	}
	return nil
}

func decode(raw []byte) (model.Collection, error) {
	var c model.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c == nil {
		c = model.Collection{}
	}
	return c, nil
}
