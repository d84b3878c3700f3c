package catalog

import (
	"fmt"
	"strings"
)

// Artist is a performing artist. Its canonical URI is derived from the
// normalized name, not a filesystem path, so tagging variants collapse
// onto one entity (see Matcher).
type Artist struct {
	ID         string
	URI        string
	Name       string
	CoverArtID string
}

// Validate validates the artist fields.
func (a *Artist) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("artist id cannot be empty")
	}
	if strings.TrimSpace(a.URI) == "" {
		return fmt.Errorf("artist URI cannot be empty")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("artist name cannot be empty")
	}
	return nil
}

// Same reports whether the two artists carry the same attributes.
func (a *Artist) Same(o *Artist) bool {
	return a.Name == o.Name && a.CoverArtID == o.CoverArtID
}
