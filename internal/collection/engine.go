// Package collection owns per-card ownership state and its write-through persistence.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/verte-zerg/cardbook/internal/catalog"
	"github.com/verte-zerg/cardbook/internal/model"
	"github.com/verte-zerg/cardbook/internal/store"
)

var (
	// ErrUnknownID is returned when a mutation names an id outside the catalog.
	ErrUnknownID = errors.New("card not in catalog")
	// ErrImport matches every import failure.
	ErrImport = errors.New("invalid collection import")
)

// ImportError reports an import payload that could not be parsed.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("invalid collection import: %v", e.Err)
}

// Is lets errors.Is match ErrImport.
func (e *ImportError) Is(target error) bool {
	return target == ErrImport
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	namespace string
	logger    *slog.Logger
}

// WithNamespace overrides the storage key namespace.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithLogger sets the logger used for recovered storage errors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Engine holds the in-memory collection for one catalog. Every mutation is written
// through to the backend before it returns; a failed write rolls memory back.
type Engine struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	persister *Persister
	state     model.Collection
	logger    *slog.Logger
}

// New loads the collection for cat from backend.
func New(ctx context.Context, cat *catalog.Catalog, backend store.Backend, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	o := options{namespace: DefaultNamespace}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	p := NewPersister(backend, StorageKey(o.namespace, cat.Expansion()), o.logger)
	state, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("loaded collection", "key", p.Key(), "records", len(state))
	return &Engine{
		catalog:   cat,
		persister: p,
		state:     state,
		logger:    o.logger,
	}, nil
}

// Catalog returns the catalog the engine tracks.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// StorageKey returns the key the collection is persisted under.
func (e *Engine) StorageKey() string {
	return e.persister.Key()
}

// Toggle flips ownership of id. Both directions reset repeats to zero.
func (e *Engine) Toggle(ctx context.Context, id string) (model.Record, error) {
	return e.update(ctx, id, func(rec model.Record) (model.Record, bool) {
		return model.Record{HasCard: !rec.HasCard}, true
	})
}

// Increment adds a repeat to an owned card; missing cards are left unchanged.
func (e *Engine) Increment(ctx context.Context, id string) (model.Record, error) {
	return e.update(ctx, id, func(rec model.Record) (model.Record, bool) {
		if !rec.HasCard {
			return rec, false
		}
		rec.Repeats++
		return rec, true
	})
}

// Decrement removes a repeat from an owned card with repeats; otherwise it is a no-op.
func (e *Engine) Decrement(ctx context.Context, id string) (model.Record, error) {
	return e.update(ctx, id, func(rec model.Record) (model.Record, bool) {
		if !rec.HasCard || rec.Repeats <= 0 {
			return rec, false
		}
		rec.Repeats--
		return rec, true
	})
}

func (e *Engine) update(ctx context.Context, id string, fn func(model.Record) (model.Record, bool)) (model.Record, error) {
	if !e.catalog.Has(id) {
		return model.Record{}, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, existed := e.state[id]
	next, changed := fn(prev)
	if !changed {
		return prev, nil
	}
	e.state[id] = next
	if err := e.persister.Save(ctx, e.state); err != nil {
		if existed {
			e.state[id] = prev
		} else {
			delete(e.state, id)
		}
		return prev, err
	}
	return next, nil
}

// MarkAll marks every catalog card as owned with zero repeats.
func (e *Engine) MarkAll(ctx context.Context) error {
	return e.setAll(ctx, model.Record{HasCard: true})
}

// UnmarkAll marks every catalog card as missing. Records are kept, not deleted.
func (e *Engine) UnmarkAll(ctx context.Context) error {
	return e.setAll(ctx, model.Record{})
}

func (e *Engine) setAll(ctx context.Context, rec model.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.state.Clone()
	for _, id := range e.catalog.IDs() {
		next[id] = rec
	}
	return e.replace(ctx, next)
}

// Import replaces the whole collection with the parsed payload. Parse failures leave
// state untouched and return an *ImportError.
func (e *Engine) Import(ctx context.Context, raw []byte) error {
	next, err := decode(raw)
	if err != nil {
		return &ImportError{Err: err}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replace(ctx, next)
}

// replace persists next and swaps it in. Callers hold e.mu.
func (e *Engine) replace(ctx context.Context, next model.Collection) error {
	if err := e.persister.Save(ctx, next); err != nil {
		return err
	}
	e.state = next
	return nil
}

// Reload discards memory and re-reads the stored collection.
func (e *Engine) Reload(ctx context.Context) error {
	state, err := e.persister.Load(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
	return nil
}

// Export serializes the collection as indented JSON. Catalog ids come first in
// display order, followed by any other stored ids in sorted order.
func (e *Engine) Export() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]string, 0, len(e.state))
	seen := make(map[string]struct{}, len(e.state))
	for _, id := range e.catalog.IDs() {
		if _, ok := e.state[id]; ok {
			keys = append(keys, id)
			seen[id] = struct{}{}
		}
	}
	var extra []string
	for id := range e.state {
		if _, ok := seen[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	if len(keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range keys {
		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		v, err := json.MarshalIndent(e.state[id], "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// Record returns the record for id; absent ids are missing.
func (e *Engine) Record(id string) model.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state[id]
}

// Snapshot returns a copy of the in-memory collection.
func (e *Engine) Snapshot() model.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Summary counts the catalog by ownership.
func (e *Engine) Summary() model.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return summarize(e.catalog.Entries(), e.state)
}

// SectionSummaries summarizes each display group of the catalog.
func (e *Engine) SectionSummaries() []model.SectionSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	groups := e.catalog.Groups()
	out := make([]model.SectionSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.SectionSummary{Name: g.Name, Summary: summarize(g.Entries, e.state)})
	}
	return out
}

func summarize(entries []model.Entry, state model.Collection) model.Summary {
	s := model.Summary{Total: len(entries)}
	for _, entry := range entries {
		rec := state[entry.ID]
		if rec.HasCard {
			s.Obtained++
			s.RepeatedTotal += rec.Repeats
		} else {
			s.Missing++
		}
	}
	return s
}

// AllMarked reports whether every catalog card is owned.
func (e *Engine) AllMarked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.catalog.IDs() {
		if !e.state[id].HasCard {
			return false
		}
	}
	return true
}

// Matches reports whether rec belongs to the filter mode.
func Matches(mode model.FilterMode, rec model.Record) bool {
	switch mode {
	case model.FilterAll:
		return true
	case model.FilterObtained:
		return rec.HasCard
	case model.FilterMissing:
		return !rec.HasCard
	case model.FilterRepeated:
		return rec.HasCard && rec.Repeats > 0
	default:
		return false
	}
}

// FilterIDs returns catalog ids matching mode in display order.
func (e *Engine) FilterIDs(mode model.FilterMode) []string {
	entries := e.filter(mode)
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	return ids
}

type filtered struct {
	model.Entry
	record model.Record
}

func (e *Engine) filter(mode model.FilterMode) []filtered {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []filtered
	for _, entry := range e.catalog.Entries() {
		rec := e.state[entry.ID]
		if Matches(mode, rec) {
			out = append(out, filtered{Entry: entry, record: rec})
		}
	}
	return out
}

// CopyText joins the labels matching mode with ", ". In repeated mode labels with
// more than one repeat carry an "(xN)" suffix.
func (e *Engine) CopyText(mode model.FilterMode) string {
	entries := e.filter(mode)
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if mode == model.FilterRepeated && entry.record.Repeats > 1 {
			parts = append(parts, fmt.Sprintf("%s(x%d)", entry.Label, entry.record.Repeats))
			continue
		}
		parts = append(parts, entry.Label)
	}
	return strings.Join(parts, ", ")
}

// CopyCount is the headline number shown next to copy text: matching cards, or the
// total number of repeats in repeated mode.
func (e *Engine) CopyCount(mode model.FilterMode) int {
	entries := e.filter(mode)
	if mode != model.FilterRepeated {
		return len(entries)
	}
	total := 0
	for _, entry := range entries {
		total += entry.record.Repeats
	}
	return total
}
