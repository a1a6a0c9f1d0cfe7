package query

import (
	"strings"
	"testing"

	"github.com/verte-zerg/cardbook/internal/model"
)

func entries() []model.Entry {
	return []model.Entry{
		{ID: "1", Label: "Goku"},
		{ID: "2", Label: "Vegeta"},
		{ID: "402", Label: "402", Section: "hidden cards"},
		{ID: "F1", Label: "F1", Section: "special cards"},
	}
}

func TestSelect(t *testing.T) {
	c := model.Collection{
		"1":  {HasCard: true, Repeats: 2},
		"2":  {HasCard: true},
		"F1": {HasCard: true, Repeats: 1},
	}
	cases := []struct {
		expr string
		want string
	}{
		{"hasCard && repeats > 0", "1,F1"},
		{"!hasCard", "402"},
		{"special", "F1"},
		{"number >= 2 && number < 500", "2,402"},
		{`section == "hidden cards"`, "402"},
		{`label startsWith "V"`, "2"},
		{`id in ["1", "F1"] && repeats >= 2`, "1"},
	}
	for _, tc := range cases {
		f, err := Compile(tc.expr)
		if err != nil {
			t.Fatalf("compile %q: %v", tc.expr, err)
		}
		ids, err := f.Select(entries(), c)
		if err != nil {
			t.Fatalf("select %q: %v", tc.expr, err)
		}
		if got := strings.Join(ids, ","); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.expr, tc.want, got)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{"", "   ", "repeats + 1", "unknownVar > 1", "hasCard &&"} {
		if _, err := Compile(expr); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
	}
}

func TestMatchMissingRecord(t *testing.T) {
	f, err := Compile("!hasCard && repeats == 0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok, err := f.Match(model.Entry{ID: "9"}, model.Record{})
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if f.String() != "!hasCard && repeats == 0" {
		t.Fatalf("unexpected string: %s", f.String())
	}
}
