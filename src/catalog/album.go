package catalog

import (
	"fmt"
	"strings"
)

// Album is a release. Like Artist, its canonical URI is name-derived,
// scoped by the album artist so that two artists can both have an album
// called "Greatest Hits".
type Album struct {
	ID         string
	URI        string
	Title      string
	CoverArtID string
}

// Validate validates the album fields.
func (a *Album) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("album id cannot be empty")
	}
	if strings.TrimSpace(a.URI) == "" {
		return fmt.Errorf("album URI cannot be empty")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("album title cannot be empty")
	}
	return nil
}

// Same reports whether the two albums carry the same attributes.
func (a *Album) Same(o *Album) bool {
	return a.Title == o.Title && a.CoverArtID == o.CoverArtID
}

// AlbumArtist links an album to an artist (many-to-many).
type AlbumArtist struct {
	AlbumID  string
	ArtistID string
}
