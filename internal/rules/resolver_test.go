package rules

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func testConfig() Config {
	return Config{
		Indexes: map[string]IndexRule{
			"title":          {Field: "title_t"},
			"date":           {Field: "date_dt", Type: "date"},
			"year":           {Field: "year_i", Type: "number", Filter: "years"},
			"rel.":           {Type: "phrase", Nested: "rel"},
			"rel.type":       {Field: "rel_type_s"},
			"rel.type.":      {Filter: "types"},
			"holding.status": {Field: "holding_status_s", Internal: boolPtr(true)},
		},
		Nested: map[string]NestedGroup{
			"rel": {Template: "{!parent which='doc_type:work' v=$%s}", Rule: "holding.status=onshelf", Filter: "relations"},
		},
		Profiles: map[string]string{"Public": "access:open"},
	}
}

func mustResolver(t *testing.T, cfg Config) *Resolver {
	t.Helper()
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestResolveExact(t *testing.T) {
	r := mustResolver(t, testConfig())

	spec, ok := r.Resolve("title")
	if !ok {
		t.Fatal("expected title to resolve")
	}
	if spec.Name != "title_t" || spec.Type != TypeText || spec.CanNest() {
		t.Errorf("unexpected spec %+v", spec)
	}

	spec, ok = r.Resolve("TITLE")
	if !ok || spec.Name != "title_t" {
		t.Error("expected index lookup to ignore case")
	}

	spec, _ = r.Resolve("year")
	if spec.Type != TypeNumber || spec.FilterQuery != "years" {
		t.Errorf("unexpected spec %+v", spec)
	}
}

func TestResolvePrefixMerge(t *testing.T) {
	r := mustResolver(t, testConfig())

	spec, ok := r.Resolve("rel.other")
	if !ok {
		t.Fatal("expected prefix rule to resolve rel.other")
	}
	if spec.Name != "rel.other" {
		t.Errorf("expected the index name as field, got %q", spec.Name)
	}
	if spec.Type != TypePhrase || spec.NestedGroup != "rel" {
		t.Errorf("unexpected spec %+v", spec)
	}
	if spec.NestedRule == nil {
		t.Error("expected the nested rule to be attached")
	}
	if spec.NestedFilterQuery != "relations" {
		t.Errorf("expected nested filter override, got %q", spec.NestedFilterQuery)
	}

	spec, _ = r.Resolve("rel.type")
	if spec.Name != "rel_type_s" || spec.Type != TypePhrase || spec.NestedGroup != "rel" {
		t.Errorf("expected exact rule to override the prefix field only, got %+v", spec)
	}
	if spec.FilterQuery != "" {
		t.Errorf("expected rel.type. not to apply to rel.type, got %q", spec.FilterQuery)
	}

	spec, _ = r.Resolve("rel.type.x")
	if spec.FilterQuery != "types" || spec.NestedGroup != "rel" {
		t.Errorf("expected both prefixes to merge, got %+v", spec)
	}
}

func TestResolveDefaultIndex(t *testing.T) {
	r := mustResolver(t, Config{})
	for _, index := range []string{"default", "cql.serverChoice"} {
		spec, ok := r.Resolve(index)
		if !ok {
			t.Fatalf("expected %s to resolve", index)
		}
		if spec.Name != "" || spec.Type != TypeText {
			t.Errorf("unexpected spec for %s: %+v", index, spec)
		}
	}

	r = mustResolver(t, Config{Indexes: map[string]IndexRule{"default": {Field: "all_t"}}})
	spec, _ := r.Resolve("default")
	if spec.Name != "all_t" {
		t.Errorf("expected configured default field, got %q", spec.Name)
	}
}

func TestResolveUnknownAndInternal(t *testing.T) {
	r := mustResolver(t, testConfig())

	if _, ok := r.Resolve("nope"); ok {
		t.Error("expected unknown index not to resolve")
	}
	if _, ok := r.Resolve("holding.status"); ok {
		t.Error("expected internal index to be hidden from client queries")
	}
	spec, ok := r.Internal().Resolve("holding.status")
	if !ok || spec.Name != "holding_status_s" {
		t.Errorf("expected internal lookup to resolve, got %+v", spec)
	}
}

func TestResolveConcurrent(t *testing.T) {
	r := mustResolver(t, testConfig())

	const workers = 16
	specs := make([]*FieldSpec, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			specs[i], _ = r.Resolve("rel.type")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if specs[i] != specs[0] {
			t.Fatal("expected every goroutine to see the memoised spec")
		}
	}
}

func TestResolvePrefixMatchesNotMemoised(t *testing.T) {
	r := mustResolver(t, testConfig())

	for i := 0; i < 1000; i++ {
		spec, ok := r.Resolve(fmt.Sprintf("rel.x%d", i))
		if !ok || spec.NestedGroup != "rel" {
			t.Fatalf("expected rel.x%d to resolve through the prefix rule, got %+v", i, spec)
		}
		if _, ok := r.Internal().Resolve(fmt.Sprintf("rel.y%d", i)); !ok {
			t.Fatalf("expected rel.y%d to resolve internally", i)
		}
	}
	r.Resolve("rel.type")
	r.Resolve("default")

	count := func(m *sync.Map) int {
		n := 0
		m.Range(func(_, _ any) bool {
			n++
			return true
		})
		return n
	}
	if n := count(&r.public); n != 2 {
		t.Errorf("expected 2 memoised public specs, got %d", n)
	}
	if n := count(&r.internal); n > len(r.exact) {
		t.Errorf("expected at most %d memoised internal specs, got %d", len(r.exact), n)
	}
}

func TestProfile(t *testing.T) {
	r := mustResolver(t, testConfig())
	filter, ok := r.Profile("public")
	if !ok || filter != "access:open" {
		t.Errorf("expected public profile, got %q %v", filter, ok)
	}
	if _, ok := r.Profile("missing"); ok {
		t.Error("expected unknown profile to be missing")
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "unknown type",
			cfg:  Config{Indexes: map[string]IndexRule{"a": {Type: "blob"}}},
			want: "unknown field type",
		},
		{
			name: "unknown nested group",
			cfg:  Config{Indexes: map[string]IndexRule{"a": {Nested: "missing"}}},
			want: "unknown nested group",
		},
		{
			name: "template without placeholder",
			cfg:  Config{Nested: map[string]NestedGroup{"g": {Template: "{!parent}"}}},
			want: "template must contain",
		},
		{
			name: "rule does not parse",
			cfg:  Config{Nested: map[string]NestedGroup{"g": {Template: "%s", Rule: "a and"}}},
			want: "rule",
		},
		{
			name: "rule uses unknown index",
			cfg:  Config{Nested: map[string]NestedGroup{"g": {Template: "%s", Rule: "missing=x"}}},
			want: "unknown index",
		},
		{
			name: "empty index name",
			cfg:  Config{Indexes: map[string]IndexRule{" ": {}}},
			want: "empty index name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseFieldType(t *testing.T) {
	tests := map[string]FieldType{
		"":       TypeText,
		"TEXT":   TypeText,
		"phrase": TypePhrase,
		"Number": TypeNumber,
		" date ": TypeDate,
	}
	for in, want := range tests {
		got, err := ParseFieldType(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
	if !TypeDate.IsRange() || TypePhrase.IsRange() {
		t.Error("unexpected IsRange result")
	}
}

func TestSameNestedGroup(t *testing.T) {
	a := &FieldSpec{NestedGroup: "g"}
	b := &FieldSpec{NestedGroup: "g"}
	c := &FieldSpec{NestedGroup: "h"}
	none := &FieldSpec{}

	if !a.SameNestedGroup(b) {
		t.Error("expected a and b to share a group")
	}
	if a.SameNestedGroup(c) || none.SameNestedGroup(none) {
		t.Error("expected no shared group")
	}
}
