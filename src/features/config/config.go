package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads and writes human-friendly
// YAML values like "1h30m". yaml.v3 would otherwise only accept
// integer nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Both "90m" strings and
// plain nanosecond integers are accepted.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value on line %d", value.Line)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON keeps the JSON config dump readable too.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// Config holds the application configuration.
type Config struct {
	LibraryRoots []string `yaml:"libraryRoots" validate:"required,min=1,dive,required"`
	Logger       Logger   `yaml:"logger"`
	Server       Server   `yaml:"server"`
	Database     Database `yaml:"database"`
	Scan         Scan     `yaml:"scan"`
	Matcher      Matcher  `yaml:"matcher"`
	CoverArt     CoverArt `yaml:"coverArt"`
}

// Scan holds the configuration for the scan scheduler.
type Scan struct {
	OnStart  bool     `yaml:"on_start"`
	Interval Duration `yaml:"interval"`
	Workers  int      `yaml:"workers" validate:"min=0"`
}

// Matcher holds the configuration for artist/album name matching.
type Matcher struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"min=0,max=1"`
}

// CoverArt holds the configuration for the cover art pipeline.
type CoverArt struct {
	Embedded     bool   `yaml:"embedded"`
	FolderImages bool   `yaml:"folder_images"`
	MaxEdge      int    `yaml:"max_edge"`
	Remote       Remote `yaml:"remote"`
}

// Remote holds the configuration for the remote cover art provider.
type Remote struct {
	Enabled        bool     `yaml:"enabled"`
	BaseURL        string   `yaml:"base_url"`
	Secret         *string  `yaml:"secret,omitempty"`
	RequestsPerSec float64  `yaml:"requests_per_sec"`
	Timeout        Duration `yaml:"timeout"`
	CacheTTL       Duration `yaml:"cache_ttl"`
}

// Database holds the configuration for the database
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}
