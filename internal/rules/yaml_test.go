package rules

import (
	"testing"
)

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("testdata/rules.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.Indexes["title"].Field; got != "title_t" {
		t.Errorf("expected title_t, got %q", got)
	}
	if got := cfg.Indexes["rel."].Nested; got != "rel" {
		t.Errorf("expected prefix rule with nested group rel, got %q", got)
	}
	if !cfg.Indexes["holding.status"].internal() {
		t.Error("expected holding.status to be internal")
	}
	if cfg.Nested["rel"].Rule != "holding.status=onshelf" {
		t.Errorf("unexpected nested rule %q", cfg.Nested["rel"].Rule)
	}
	if cfg.Profiles["public"] != "access:open" {
		t.Errorf("unexpected profile %q", cfg.Profiles["public"])
	}

	if _, err := New(*cfg); err != nil {
		t.Errorf("expected testdata rules to be valid: %v", err)
	}
}

func TestParseYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := ParseYAML([]byte("indexes:\n  title:\n    solr: title_t\n"))
	if err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	cfg, err := ParseYAML(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Indexes) != 0 {
		t.Errorf("expected no indexes, got %d", len(cfg.Indexes))
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	cfg := testConfig()
	data, err := MarshalYAML(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Nested["rel"].Template != cfg.Nested["rel"].Template {
		t.Errorf("template lost in round trip: %q", back.Nested["rel"].Template)
	}
	if !back.Indexes["holding.status"].internal() {
		t.Error("internal flag lost in round trip")
	}
}
