package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/castform/batchqueue/job"
)

// Config is the recognized set of options for wiring up a store, executor
// and retention worker. Zero-value fields are replaced by their defaults
// after unmarshalling; see Defaults.
type Config struct {
	// DBPath is the sqlite file path. Empty means an in-memory database.
	DBPath string `yaml:"db_path"`

	// PollInterval is the executor's suspend duration between scheduler
	// polls. Default 2s.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Cooldown is the executor's extra suspend inserted every
	// MaxConsecutive items. Default 0 (disabled).
	Cooldown time.Duration `yaml:"cooldown"`

	// MaxConsecutive bounds how many items the executor processes before
	// applying Cooldown. 0 means unlimited.
	MaxConsecutive int `yaml:"max_consecutive"`

	// ReorderNoteTemplate overrides the human-readable note stamped on
	// jobs caught up in a resource-grouping reorder pass. Empty uses the
	// scheduler package's built-in text.
	ReorderNoteTemplate string `yaml:"lock_note_template"`

	// RetentionInterval is how often the retention worker runs. Default
	// 1 hour.
	RetentionInterval time.Duration `yaml:"retention_interval"`

	// RetentionStatus restricts retention to a single terminal status.
	// job.JobUnknown (the zero value) targets every terminal status.
	RetentionStatus job.JobStatus `yaml:"retention_status"`

	// RetentionAfter, when positive, restricts retention to jobs whose
	// CompletedAt is older than RetentionAfter. Zero disables the age
	// filter, so every terminal job is eligible as soon as the worker
	// runs.
	RetentionAfter time.Duration `yaml:"retention_after"`
}

const (
	defaultPollInterval      = 2 * time.Second
	defaultRetentionInterval = time.Hour
)

// Defaults fills zero-value fields with their documented defaults.
func (c *Config) Defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.RetentionInterval <= 0 {
		c.RetentionInterval = defaultRetentionInterval
	}
}

// Load reads a YAML configuration file from path and applies Defaults to
// any zero-value field left unset by the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Defaults()
	return &cfg, nil
}
