package catalog

import (
	"fmt"
	"strings"
)

// CoverArt is a stored image, shared by reference from folders, albums,
// artists and songs. It is keyed by content hash (see CoverURI), so
// identical artwork across many albums is stored once, and it is only
// deleted once reconciliation finds zero remaining referrers.
type CoverArt struct {
	ID   string
	URI  string
	Data []byte // nil in snapshots; loaded on demand via the store
}

// Validate validates the cover art fields.
func (c *CoverArt) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("cover art id cannot be empty")
	}
	if strings.TrimSpace(c.URI) == "" {
		return fmt.Errorf("cover art URI cannot be empty")
	}
	return nil
}
