package rules

// Config is the rules configuration as loaded from YAML or the rules store.
type Config struct {
	Indexes  map[string]IndexRule   `yaml:"indexes"`
	Nested   map[string]NestedGroup `yaml:"nested"`
	Profiles map[string]string      `yaml:"profiles"`
}

// IndexRule configures an index. Keys ending in "." are prefix rules that apply to
// every index starting with the key; exact rules override prefix rules field by field.
type IndexRule struct {
	Field    string `yaml:"field,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Nested   string `yaml:"nested,omitempty"`
	Filter   string `yaml:"filter,omitempty"`
	Internal *bool  `yaml:"internal,omitempty"`
}

// NestedGroup configures how clauses on a nested group are sent to the backend.
type NestedGroup struct {
	Template string `yaml:"template"`
	Rule     string `yaml:"rule,omitempty"`
	// Filter overrides the filter query of nested sub-queries of this group.
	Filter string `yaml:"filter,omitempty"`
}

// merge overlays the set fields of o onto r.
func (r IndexRule) merge(o IndexRule) IndexRule {
	if o.Field != "" {
		r.Field = o.Field
	}
	if o.Type != "" {
		r.Type = o.Type
	}
	if o.Nested != "" {
		r.Nested = o.Nested
	}
	if o.Filter != "" {
		r.Filter = o.Filter
	}
	if o.Internal != nil {
		r.Internal = o.Internal
	}
	return r
}

func (r IndexRule) internal() bool {
	return r.Internal != nil && *r.Internal
}
