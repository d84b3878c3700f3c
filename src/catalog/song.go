package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Song represents a single indexed audio file.
//
// Optional references (cover art, artist, album) are empty strings when
// absent; the store maps them to NULL columns. A song whose container
// could not be parsed still gets a row with filename-derived metadata:
// missing metadata is not an error condition for indexing purposes.
type Song struct {
	ID          string
	URI         string
	Title       string
	Created     time.Time
	ReleaseDate *time.Time
	CoverArtID  string
	ArtistID    string
	AlbumID     string
	ContentType string
	Suffix      string
	Size        int64
	TrackNumber int
	DiscNumber  int
	Duration    int // seconds
	BitRate     int // kbps
	Genre       string
}

// Validate validates the song fields.
func (s *Song) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("song id cannot be empty")
	}
	if strings.TrimSpace(s.URI) == "" {
		return fmt.Errorf("song URI cannot be empty")
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("song title cannot be empty: %s", s.URI)
	}
	if s.Size < 0 {
		return fmt.Errorf("song size cannot be negative, got %d", s.Size)
	}
	if s.TrackNumber < 0 {
		return fmt.Errorf("track number cannot be negative, got %d", s.TrackNumber)
	}
	if s.DiscNumber < 0 {
		return fmt.Errorf("disc number cannot be negative, got %d", s.DiscNumber)
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration cannot be negative, got %d", s.Duration)
	}
	if s.BitRate < 0 {
		return fmt.Errorf("bit rate cannot be negative, got %d", s.BitRate)
	}
	return nil
}

// Same reports whether the two songs carry the same attributes. The
// creation timestamp is deliberately excluded: it is assigned on first
// observation and kept on update.
func (s *Song) Same(o *Song) bool {
	if !timePtrEqual(s.ReleaseDate, o.ReleaseDate) {
		return false
	}
	return s.Title == o.Title &&
		s.CoverArtID == o.CoverArtID &&
		s.ArtistID == o.ArtistID &&
		s.AlbumID == o.AlbumID &&
		s.ContentType == o.ContentType &&
		s.Suffix == o.Suffix &&
		s.Size == o.Size &&
		s.TrackNumber == o.TrackNumber &&
		s.DiscNumber == o.DiscNumber &&
		s.Duration == o.Duration &&
		s.BitRate == o.BitRate &&
		s.Genre == o.Genre
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
