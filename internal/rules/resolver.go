package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nlstn/go-cql/internal/parser"
)

// serverChoiceIndexes resolve to the backend default field unless configured.
var serverChoiceIndexes = map[string]bool{
	parser.DefaultIndex: true,
	"cql.serverchoice":  true,
}

// Lookup resolves CQL index names to field specs.
type Lookup interface {
	Resolve(index string) (*FieldSpec, bool)
}

type prefixRule struct {
	prefix string
	rule   IndexRule
}

type group struct {
	template string
	rule     parser.Node
	filter   string
}

// Resolver resolves index names against a rules configuration. It is immutable after
// New and safe for concurrent use. Specs of configured index names are memoised.
type Resolver struct {
	cfg      Config
	exact    map[string]IndexRule
	prefixes []prefixRule
	groups   map[string]group
	profiles map[string]string

	public   sync.Map
	internal sync.Map
}

// New validates cfg and builds a Resolver. Nested group rules are parsed here, so a
// broken rule fails at load time rather than on first use.
func New(cfg Config) (*Resolver, error) {
	r := &Resolver{
		cfg:      cfg,
		exact:    make(map[string]IndexRule),
		groups:   make(map[string]group),
		profiles: make(map[string]string),
	}

	for name, g := range cfg.Nested {
		if !strings.Contains(g.Template, "%s") {
			return nil, fmt.Errorf("rules: nested group %q: template must contain %%s", name)
		}
		parsed := group{template: g.Template, filter: g.Filter}
		if strings.TrimSpace(g.Rule) != "" {
			node, err := parser.Parse(g.Rule, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("rules: nested group %q: rule: %w", name, err)
			}
			parsed.rule = node
		}
		r.groups[strings.ToLower(name)] = parsed
	}

	for name, rule := range cfg.Indexes {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, fmt.Errorf("rules: empty index name")
		}
		if _, err := ParseFieldType(rule.Type); err != nil {
			return nil, fmt.Errorf("rules: index %q: %w", name, err)
		}
		if rule.Nested != "" {
			if _, ok := r.groups[strings.ToLower(rule.Nested)]; !ok {
				return nil, fmt.Errorf("rules: index %q: unknown nested group %q", name, rule.Nested)
			}
		}
		if strings.HasSuffix(key, ".") {
			r.prefixes = append(r.prefixes, prefixRule{prefix: key, rule: rule})
		} else {
			r.exact[key] = rule
		}
	}
	// Shorter prefixes first, so longer ones override them.
	sort.Slice(r.prefixes, func(i, j int) bool {
		if len(r.prefixes[i].prefix) != len(r.prefixes[j].prefix) {
			return len(r.prefixes[i].prefix) < len(r.prefixes[j].prefix)
		}
		return r.prefixes[i].prefix < r.prefixes[j].prefix
	})

	for name, filter := range cfg.Profiles {
		r.profiles[strings.ToLower(name)] = filter
	}

	for name, g := range r.groups {
		if g.rule == nil {
			continue
		}
		var missing string
		parser.Walk(g.rule, func(s *parser.Search) {
			if _, ok := r.resolve(s.Index, true); !ok && missing == "" {
				missing = s.Index
			}
		})
		if missing != "" {
			return nil, fmt.Errorf("rules: nested group %q: rule uses unknown index %q", name, missing)
		}
	}

	return r, nil
}

// Resolve resolves an index used in a client query. Internal indexes are not visible.
func (r *Resolver) Resolve(index string) (*FieldSpec, bool) {
	return r.resolve(index, false)
}

// Internal returns a Lookup that also sees internal indexes, for nested group rules.
func (r *Resolver) Internal() Lookup {
	return internalLookup{r}
}

type internalLookup struct {
	r *Resolver
}

func (l internalLookup) Resolve(index string) (*FieldSpec, bool) {
	return l.r.resolve(index, true)
}

// Profile returns the filter clause of a named profile.
func (r *Resolver) Profile(name string) (string, bool) {
	f, ok := r.profiles[strings.ToLower(name)]
	return f, ok
}

// Config returns the configuration the resolver was built from.
func (r *Resolver) Config() Config {
	return r.cfg
}

func (r *Resolver) resolve(index string, allowInternal bool) (*FieldSpec, bool) {
	key := strings.ToLower(index)
	cache := &r.public
	if allowInternal {
		cache = &r.internal
	}
	if v, ok := cache.Load(key); ok {
		return v.(*FieldSpec), true
	}

	spec := r.build(key, allowInternal)
	if spec == nil {
		return nil, false
	}
	// Index names come from client input: only names the configuration lists are
	// memoised, so prefix-only matches are built per call.
	if !r.memoisable(key) {
		return spec, true
	}
	actual, _ := cache.LoadOrStore(key, spec)
	return actual.(*FieldSpec), true
}

func (r *Resolver) memoisable(key string) bool {
	if _, ok := r.exact[key]; ok {
		return true
	}
	return serverChoiceIndexes[key]
}

func (r *Resolver) build(key string, allowInternal bool) *FieldSpec {
	var merged IndexRule
	matched := false
	for _, p := range r.prefixes {
		if strings.HasPrefix(key, p.prefix) {
			merged = merged.merge(p.rule)
			matched = true
		}
	}
	if rule, ok := r.exact[key]; ok {
		merged = merged.merge(rule)
		matched = true
	}

	if !matched {
		if serverChoiceIndexes[key] {
			return &FieldSpec{Type: TypeText}
		}
		return nil
	}
	if merged.internal() && !allowInternal {
		return nil
	}

	typ, _ := ParseFieldType(merged.Type)
	spec := &FieldSpec{
		Name:        merged.Field,
		Type:        typ,
		FilterQuery: merged.Filter,
	}
	if spec.Name == "" && !serverChoiceIndexes[key] {
		spec.Name = key
	}
	if merged.Nested != "" {
		g := r.groups[strings.ToLower(merged.Nested)]
		spec.NestedGroup = strings.ToLower(merged.Nested)
		spec.NestedQueryTemplate = g.template
		spec.NestedRule = g.rule
		spec.NestedFilterQuery = g.filter
	}
	return spec
}
