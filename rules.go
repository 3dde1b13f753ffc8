package cql

import (
	"context"
	"fmt"

	"github.com/nlstn/go-cql/internal/rules"
)

// Rules resolves CQL indexes to backend fields. Rules are immutable and may be shared
// between compilers.
type Rules = rules.Resolver

// RulesConfig is a rules table as read from YAML or the rules store.
type RulesConfig = rules.Config

// IndexRule configures one index, or every index with a prefix when the name ends in ".".
type IndexRule = rules.IndexRule

// NestedGroup configures the sub-query of a nested document group.
type NestedGroup = rules.NestedGroup

// NewRules validates cfg and builds Rules.
func NewRules(cfg RulesConfig) (*Rules, error) {
	return rules.New(cfg)
}

// LoadRules reads rules from a YAML file.
func LoadRules(path string) (*Rules, error) {
	cfg, err := rules.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return rules.New(*cfg)
}

// LoadRulesFromStore reads rules from a rules database. dsn selects postgres for
// postgres:// URLs and sqlite otherwise.
func LoadRulesFromStore(ctx context.Context, dsn string) (*Rules, error) {
	store, err := rules.OpenStore(dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	r, err := rules.New(*cfg)
	if err != nil {
		return nil, fmt.Errorf("cql: rules from store: %w", err)
	}
	return r, nil
}
