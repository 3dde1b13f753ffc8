package flat

import (
	"reflect"
	"testing"
)

func TestExtractFilters(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		main    string
		filters []string
	}{
		{
			name:  "no filter fields",
			query: "title=a and author=b",
			main:  "and(title=a, author=b)",
		},
		{
			name:    "filter clauses of one name are combined",
			query:   "year=2000 and title=x and year=2001",
			main:    "and(title=x)",
			filters: []string{"and(year=2000, year=2001)"},
		},
		{
			name:    "nots stay in the main query",
			query:   "year=2000 not year=2001",
			main:    "and() not(year=2001)",
			filters: []string{"and(year=2000)"},
		},
		{
			name:    "group with a common filter moves as a whole",
			query:   "title=x and (year=1 or year=2)",
			main:    "and(title=x)",
			filters: []string{"and(or(year=1, year=2))"},
		},
		{
			name:  "mixed group stays",
			query: "title=x and (year=1 or author=y)",
			main:  "and(title=x, or(year=1, author=y))",
		},
		{
			name:    "or of one filter is emptied",
			query:   "year=1 or year=2",
			main:    "or()",
			filters: []string{"or(year=1, year=2)"},
		},
		{
			name:  "mixed or stays",
			query: "year=1 or title=x",
			main:  "or(year=1, title=x)",
		},
		{
			name:    "nested references carry their group filter",
			query:   "title=x and hold.loc=a and year=3",
			main:    "and(title=x)",
			filters: []string{"and(<{!parent which='doc_type:holding' v=$q1}>)", "and(year=3)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testResolver(t, false)
			root, _, err := ExtractNested(r.Internal(), flatten(t, r, tt.query))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			main, filters, err := ExtractFilters(root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := shape(main); got != tt.main {
				t.Errorf("main: expected %s, got %s", tt.main, got)
			}
			if len(filters) != len(tt.filters) {
				t.Fatalf("expected %d filters, got %d", len(tt.filters), len(filters))
			}
			for i, want := range tt.filters {
				if got := shape(filters[i]); got != want {
					t.Errorf("filter[%d]: expected %s, got %s", i, want, got)
				}
			}
		})
	}
}

func TestExtractFiltersPartition(t *testing.T) {
	r := testResolver(t, false)
	queries := []string{
		"year=2000 and title=x and year=2001 not author=y",
		"year=1 or year=2",
		"title=x and (year=1 or year=2) and author=z",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			root := flatten(t, r, q)
			before := leafTerms(root)

			main, filters, err := ExtractFilters(root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			after := leafTerms(append([]Node{main}, filters...)...)
			if !reflect.DeepEqual(before, after) {
				t.Errorf("leaves changed: before %v, after %v", before, after)
			}
		})
	}
}
