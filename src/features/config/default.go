package config

import (
	"time"

	"shellac/src/catalog"
)

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		LibraryRoots: []string{"./music"},
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3535,
		},
		Database: Database{
			Path: "./catalog.db",
		},
		Scan: Scan{
			OnStart:  true,
			Interval: Duration(time.Hour),
			Workers:  4,
		},
		Matcher: Matcher{
			SimilarityThreshold: catalog.DefaultSimilarityThreshold,
		},
		CoverArt: CoverArt{
			Embedded:     true,
			FolderImages: true,
			MaxEdge:      1000,
			Remote: Remote{
				Enabled:        false,
				BaseURL:        "https://coverartarchive.org",
				RequestsPerSec: 2,
				Timeout:        Duration(10 * time.Second),
				CacheTTL:       Duration(24 * time.Hour),
			},
		},
	}
}
