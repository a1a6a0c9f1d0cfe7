// Package catalog builds the ordered card catalog from declarative configuration.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/cardbook/internal/model"
)

// DefaultImageBaseURL is used when the configuration does not set an image host.
const DefaultImageBaseURL = "https://res.cloudinary.com/dbzcardcollection/image/upload"

// MaxCards bounds the size of one catalog across all segments.
const MaxCards = 100_000

// ErrInvalidConfig matches every catalog configuration error.
var ErrInvalidConfig = errors.New("invalid catalog configuration")

// ConfigError describes a rejected catalog configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid catalog configuration: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Catalog is the immutable, ordered set of entries for one expansion.
type Catalog struct {
	expansion string
	entries   []model.Entry
	index     map[string]int
}

// Group is a run of consecutive entries sharing a section name.
type Group struct {
	Name    string
	Entries []model.Entry
}

// Build generates a catalog. Inverted ranges and duplicate ids are rejected.
func Build(cfg model.CatalogConfig) (*Catalog, error) {
	expansion := strings.TrimSpace(cfg.Expansion)
	if expansion == "" {
		return nil, &ConfigError{Field: "expansion", Reason: "must not be empty"}
	}
	ids, err := generateIDs(cfg)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.ImageBaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultImageBaseURL
	}

	c := &Catalog{
		expansion: expansion,
		entries:   make([]model.Entry, 0, len(ids)),
		index:     make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		if _, dup := c.index[id]; dup {
			return nil, &ConfigError{Field: "ranges", Reason: fmt.Sprintf("duplicate id %q", id)}
		}
		label := id
		if l, ok := cfg.Labels[id]; ok && strings.TrimSpace(l) != "" {
			label = l
		}
		c.index[id] = len(c.entries)
		c.entries = append(c.entries, model.Entry{
			ID:       id,
			Label:    label,
			ImageURL: fmt.Sprintf("%s/%s/%s.jpg", baseURL, expansion, id),
			Section:  sectionFor(id, cfg.Sections),
		})
	}
	return c, nil
}

func generateIDs(cfg model.CatalogConfig) ([]string, error) {
	simple := cfg.Start != nil || cfg.End != nil
	multi := len(cfg.Ranges) > 0
	switch {
	case simple && multi:
		return nil, &ConfigError{Field: "ranges", Reason: "start/end and ranges are mutually exclusive"}
	case !simple && !multi && cfg.Specials == nil:
		return nil, &ConfigError{Field: "start", Reason: "one of start/end or ranges is required"}
	}

	var ids []string
	if simple {
		if cfg.Start == nil || cfg.End == nil {
			return nil, &ConfigError{Field: "start", Reason: "start and end must both be set"}
		}
		if *cfg.End < *cfg.Start {
			return nil, &ConfigError{Field: "end", Reason: fmt.Sprintf("end %d is before start %d", *cfg.End, *cfg.Start)}
		}
		var err error
		if ids, err = appendRange(ids, "end", "", *cfg.Start, *cfg.End); err != nil {
			return nil, err
		}
	}
	for i, r := range cfg.Ranges {
		if r.To < r.From {
			return nil, &ConfigError{Field: fmt.Sprintf("ranges[%d]", i), Reason: fmt.Sprintf("to %d is before from %d", r.To, r.From)}
		}
		var err error
		if ids, err = appendRange(ids, fmt.Sprintf("ranges[%d]", i), "", r.From, r.To); err != nil {
			return nil, err
		}
	}
	if sp := cfg.Specials; sp != nil {
		if strings.TrimSpace(sp.Prefix) == "" {
			return nil, &ConfigError{Field: "specials.prefix", Reason: "must not be empty"}
		}
		if sp.To < sp.From {
			return nil, &ConfigError{Field: "specials", Reason: fmt.Sprintf("to %d is before from %d", sp.To, sp.From)}
		}
		var err error
		if ids, err = appendRange(ids, "specials", sp.Prefix, sp.From, sp.To); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// appendRange adds prefix+i for i in [from, to]. Callers ensure from <= to.
func appendRange(ids []string, field, prefix string, from, to int) ([]string, error) {
	// to-from as uint64 is exact for any from <= to.
	span := uint64(to) - uint64(from)
	if span >= MaxCards || uint64(len(ids))+span+1 > MaxCards {
		return nil, &ConfigError{Field: field, Reason: fmt.Sprintf("catalog exceeds %d cards", MaxCards)}
	}
	for i := from; ; i++ {
		ids = append(ids, prefix+strconv.Itoa(i))
		if i == to {
			break
		}
	}
	return ids, nil
}

func sectionFor(id string, rules []model.SectionRule) string {
	num, numErr := strconv.Atoi(id)
	for _, rule := range rules {
		if rule.Prefix != "" {
			if strings.HasPrefix(id, rule.Prefix) {
				return rule.Name
			}
			continue
		}
		if numErr != nil || (rule.From == nil && rule.To == nil) {
			continue
		}
		if rule.From != nil && num < *rule.From {
			continue
		}
		if rule.To != nil && num > *rule.To {
			continue
		}
		return rule.Name
	}
	return ""
}

// Expansion returns the catalog identity used to scope storage.
func (c *Catalog) Expansion() string {
	return c.expansion
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in display order.
func (c *Catalog) Entries() []model.Entry {
	out := make([]model.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// IDs returns the ids in display order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// Has reports whether id belongs to the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Entry looks up an entry by id.
func (c *Catalog) Entry(id string) (model.Entry, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Entry{}, false
	}
	return c.entries[i], true
}

// Groups partitions the entries into runs; a new group starts whenever the section name changes.
func (c *Catalog) Groups() []Group {
	var groups []Group
	for _, e := range c.entries {
		if len(groups) == 0 || groups[len(groups)-1].Name != e.Section {
			groups = append(groups, Group{Name: e.Section})
		}
		last := &groups[len(groups)-1]
		last.Entries = append(last.Entries, e)
	}
	return groups
}

// Search matches comma-separated ids or labels. An empty query matches everything.
func (c *Catalog) Search(query string) []string {
	tokens := ParseQuery(query)
	if len(tokens) == 0 {
		return c.IDs()
	}
	wanted := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		wanted[t] = struct{}{}
	}
	var ids []string
	for _, e := range c.entries {
		_, byLabel := wanted[e.Label]
		_, byID := wanted[e.ID]
		if byLabel || byID {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// ParseQuery splits a search query on commas, dropping blanks.
func ParseQuery(query string) []string {
	var tokens []string
	for _, part := range strings.Split(query, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}
