// Package query filters catalog entries with expr-lang expressions.
package query

import (
	"fmt"
	"strconv"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/verte-zerg/cardbook/internal/model"
)

// Filter is a compiled boolean expression over one card.
type Filter struct {
	expression string
	program    *exprvm.Program
}

// Compile type-checks expression against the card variables. The expression must
// evaluate to a bool.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(environment(model.Entry{}, model.Record{})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Match evaluates the filter for a single entry.
func (f *Filter) Match(entry model.Entry, rec model.Record) (bool, error) {
	out, err := exprlang.Run(f.program, environment(entry, rec))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %q for %s: %w", f.expression, entry.ID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Select returns the ids of matching entries in order. Absent records are missing.
func (f *Filter) Select(entries []model.Entry, c model.Collection) ([]string, error) {
	var ids []string
	for _, entry := range entries {
		ok, err := f.Match(entry, c[entry.ID])
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, entry.ID)
		}
	}
	return ids, nil
}

func environment(entry model.Entry, rec model.Record) map[string]any {
	number, err := strconv.Atoi(entry.ID)
	special := err != nil
	if special {
		number = -1
	}
	return map[string]any{
		"id":      entry.ID,
		"label":   entry.Label,
		"section": entry.Section,
		"hasCard": rec.HasCard,
		"repeats": rec.Repeats,
		"number":  number,
		"special": special,
	}
}
