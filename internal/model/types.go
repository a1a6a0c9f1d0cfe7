// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
)

// Record is the ownership state of a single card.
type Record struct {
	HasCard bool `json:"hasCard"`
	Repeats int  `json:"repeats"`
}

// Collection maps card ids to ownership records. Absent ids are missing with no repeats.
type Collection map[string]Record

// Clone returns an independent copy of the collection.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for id, rec := range c {
		out[id] = rec
	}
	return out
}

// Summary aggregates ownership over a catalog.
type Summary struct {
	Total         int
	Obtained      int
	Missing       int
	RepeatedTotal int
}

// SectionSummary aggregates ownership over one display section.
type SectionSummary struct {
	Name string
	Summary
}

// FilterMode selects a subset of catalog ids by ownership.
type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterObtained FilterMode = "obtained"
	FilterMissing  FilterMode = "missing"
	FilterRepeated FilterMode = "repeated"
)

// FilterModes lists the modes in display order.
var FilterModes = []FilterMode{FilterAll, FilterObtained, FilterMissing, FilterRepeated}

// ParseFilterMode parses a filter mode name case-insensitively.
func ParseFilterMode(s string) (FilterMode, error) {
	mode := FilterMode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range FilterModes {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (expected all, obtained, missing or repeated)", s)
}

// Entry is a single catalog item in display order.
type Entry struct {
	ID       string
	Label    string
	ImageURL string
	Section  string
}

// Range is an inclusive numeric id range.
type Range struct {
	From int `toml:"from"`
	To   int `toml:"to"`
}

// Specials describes prefixed alphanumeric ids such as F1..F10.
type Specials struct {
	From   int    `toml:"from"`
	To     int    `toml:"to"`
	Prefix string `toml:"prefix"`
}

// SectionRule assigns a display section to ids by numeric range or prefix.
type SectionRule struct {
	Name   string `toml:"name"`
	From   *int   `toml:"from"`
	To     *int   `toml:"to"`
	Prefix string `toml:"prefix"`
}

// CatalogConfig declares how a catalog is generated.
type CatalogConfig struct {
	Expansion    string
	Start        *int
	End          *int
	Ranges       []Range
	Specials     *Specials
	Labels       map[string]string
	Sections     []SectionRule
	ImageBaseURL string
}
