package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Folder is a directory inside one of the configured library roots.
// Root folders have no parent.
type Folder struct {
	ID         string
	ParentID   string // empty for roots
	URI        string
	Name       string
	CoverArtID string
	Created    time.Time
}

// Validate validates the folder fields.
func (f *Folder) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("folder id cannot be empty")
	}
	if strings.TrimSpace(f.URI) == "" {
		return fmt.Errorf("folder URI cannot be empty")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("folder name cannot be empty")
	}
	if f.ParentID == f.ID {
		return fmt.Errorf("folder cannot be its own parent: %s", f.ID)
	}
	return nil
}

// Same reports whether the two folders carry the same attributes,
// ignoring nothing: two folders with equal URIs and equal attributes
// produce no reconciliation work.
func (f *Folder) Same(o *Folder) bool {
	return f.ParentID == o.ParentID &&
		f.Name == o.Name &&
		f.CoverArtID == o.CoverArtID
}

// FolderChild is a directory listing entry: either a sub-resource
// pointing at a song, or a pass-through marker for a subfolder.
type FolderChild struct {
	ID       string
	FolderID string
	URI      string
	Path     string // path segment relative to the owning folder
	Name     string
	SongID   string // empty for subfolder markers
}

// Validate validates the folder child fields.
func (c *FolderChild) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("folder child id cannot be empty")
	}
	if strings.TrimSpace(c.FolderID) == "" {
		return fmt.Errorf("folder child must belong to a folder: %s", c.URI)
	}
	if strings.TrimSpace(c.URI) == "" {
		return fmt.Errorf("folder child URI cannot be empty")
	}
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("folder child path cannot be empty: %s", c.URI)
	}
	return nil
}

// Same reports whether the two children carry the same attributes.
func (c *FolderChild) Same(o *FolderChild) bool {
	return c.FolderID == o.FolderID &&
		c.Path == o.Path &&
		c.Name == o.Name &&
		c.SongID == o.SongID
}
