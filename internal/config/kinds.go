package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"opsdesk/internal/domain/models"
)

//go:embed kinds.yaml
var kindsFile []byte

// KindSpec describes one document kind: its display-ID prefix and the closed
// set of status values it accepts. Status transitions are application policy
// and are not constrained here.
type KindSpec struct {
	Prefix   string   `yaml:"prefix"`
	Statuses []string `yaml:"statuses"`
}

type kindsConfig struct {
	Kinds map[string]KindSpec `yaml:"kinds"`
}

// KindRegistry resolves document kinds to their specs. Loaded once at
// startup from the embedded kinds.yaml.
type KindRegistry struct {
	specs map[models.Kind]KindSpec
}

// NewKindRegistry loads the embedded kind configuration and checks it covers
// every known kind.
func NewKindRegistry() (*KindRegistry, error) {
	var cfg kindsConfig
	if err := yaml.Unmarshal(kindsFile, &cfg); err != nil {
		return nil, fmt.Errorf("parse kinds.yaml: %w", err)
	}

	specs := make(map[models.Kind]KindSpec, len(cfg.Kinds))
	for name, spec := range cfg.Kinds {
		kind := models.Kind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("kinds.yaml names unknown kind %q", name)
		}
		if spec.Prefix == "" || len(spec.Statuses) == 0 {
			return nil, fmt.Errorf("kinds.yaml entry %q is missing prefix or statuses", name)
		}
		specs[kind] = spec
	}

	for _, kind := range models.Kinds() {
		if _, ok := specs[kind]; !ok {
			return nil, fmt.Errorf("kinds.yaml has no entry for kind %q", kind)
		}
	}

	return &KindRegistry{specs: specs}, nil
}

// Prefix returns the display-ID prefix for a kind.
func (r *KindRegistry) Prefix(kind models.Kind) (string, error) {
	spec, ok := r.specs[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	return spec.Prefix, nil
}

// Statuses returns the status values a kind accepts.
func (r *KindRegistry) Statuses(kind models.Kind) []string {
	return r.specs[kind].Statuses
}

// ValidStatus reports whether status belongs to the kind's status set.
func (r *KindRegistry) ValidStatus(kind models.Kind, status string) bool {
	for _, s := range r.specs[kind].Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// DefaultStatus returns the kind's initial status (the first configured
// value, draft for every shipped kind).
func (r *KindRegistry) DefaultStatus(kind models.Kind) string {
	statuses := r.specs[kind].Statuses
	if len(statuses) == 0 {
		return ""
	}
	return statuses[0]
}
