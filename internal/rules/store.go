package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IndexRecord is the persisted form of an IndexRule.
type IndexRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"uniqueIndex;size:255;not null"`
	Field    string `gorm:"size:255"`
	Type     string `gorm:"size:32"`
	Nested   string `gorm:"size:255"`
	Filter   string `gorm:"size:255"`
	Internal *bool
}

// TableName returns the table used for index rules.
func (IndexRecord) TableName() string { return "cql_indexes" }

// NestedGroupRecord is the persisted form of a NestedGroup.
type NestedGroupRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"uniqueIndex;size:255;not null"`
	Template string `gorm:"type:text;not null"`
	Rule     string `gorm:"type:text"`
	Filter   string `gorm:"size:255"`
}

// TableName returns the table used for nested groups.
func (NestedGroupRecord) TableName() string { return "cql_nested_groups" }

// ProfileRecord is a persisted result profile.
type ProfileRecord struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"uniqueIndex;size:255;not null"`
	Filter string `gorm:"type:text"`
}

// TableName returns the table used for profiles.
func (ProfileRecord) TableName() string { return "cql_profiles" }

// Store persists rules configurations in a SQL database.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// OpenStore opens a store from a DSN. postgres:// and postgresql:// DSNs use the
// postgres driver; anything else is a sqlite path, optionally prefixed with "sqlite:".
func OpenStore(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("rules: open store: %w", err)
	}
	return NewStore(db), nil
}

// Migrate creates or updates the rules tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&IndexRecord{}, &NestedGroupRecord{}, &ProfileRecord{}); err != nil {
		return fmt.Errorf("rules: migrate: %w", err)
	}
	return nil
}

// Load reads the stored configuration.
func (s *Store) Load(ctx context.Context) (*Config, error) {
	db := s.db.WithContext(ctx)

	var indexes []IndexRecord
	if err := db.Order("name").Find(&indexes).Error; err != nil {
		return nil, fmt.Errorf("rules: load indexes: %w", err)
	}
	var groups []NestedGroupRecord
	if err := db.Order("name").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("rules: load nested groups: %w", err)
	}
	var profiles []ProfileRecord
	if err := db.Order("name").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("rules: load profiles: %w", err)
	}

	cfg := &Config{
		Indexes:  make(map[string]IndexRule, len(indexes)),
		Nested:   make(map[string]NestedGroup, len(groups)),
		Profiles: make(map[string]string, len(profiles)),
	}
	for _, rec := range indexes {
		cfg.Indexes[rec.Name] = IndexRule{
			Field:    rec.Field,
			Type:     rec.Type,
			Nested:   rec.Nested,
			Filter:   rec.Filter,
			Internal: rec.Internal,
		}
	}
	for _, rec := range groups {
		cfg.Nested[rec.Name] = NestedGroup{Template: rec.Template, Rule: rec.Rule, Filter: rec.Filter}
	}
	for _, rec := range profiles {
		cfg.Profiles[rec.Name] = rec.Filter
	}
	return cfg, nil
}

// Save replaces the stored configuration with cfg in a single transaction.
func (s *Store) Save(ctx context.Context, cfg *Config) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&IndexRecord{}, &NestedGroupRecord{}, &ProfileRecord{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("rules: clear: %w", err)
			}
		}

		for _, name := range sortedKeys(cfg.Indexes) {
			rule := cfg.Indexes[name]
			rec := IndexRecord{
				Name:     name,
				Field:    rule.Field,
				Type:     rule.Type,
				Nested:   rule.Nested,
				Filter:   rule.Filter,
				Internal: rule.Internal,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("rules: save index %q: %w", name, err)
			}
		}
		for _, name := range sortedKeys(cfg.Nested) {
			g := cfg.Nested[name]
			rec := NestedGroupRecord{Name: name, Template: g.Template, Rule: g.Rule, Filter: g.Filter}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("rules: save nested group %q: %w", name, err)
			}
		}
		for _, name := range sortedKeys(cfg.Profiles) {
			rec := ProfileRecord{Name: name, Filter: cfg.Profiles[name]}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("rules: save profile %q: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
