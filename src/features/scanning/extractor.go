package scanning

import (
	"context"
	"path/filepath"
	"strings"
)

// supportedExtensions are the audio containers the indexer understands.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".m4a":  true,
	".mp4":  true,
	".wav":  true,
}

// contentTypes maps a file suffix to the MIME type served for it.
var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"m4a":  "audio/mp4",
	"mp4":  "audio/mp4",
	"wav":  "audio/wav",
}

// IsSupportedAudio reports whether the path looks like an audio file the
// indexer should process.
func IsSupportedAudio(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// ContentTypeFor returns the MIME type for a file suffix, defaulting to
// a generic stream when the suffix is unknown.
func ContentTypeFor(suffix string) string {
	if ct, ok := contentTypes[strings.ToLower(suffix)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Metadata is everything the extractor learned about one audio file.
// Fields the container did not carry are zero; the file is still
// indexed. Picture holds the embedded front cover, if any.
type Metadata struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        int
	TrackNumber int
	DiscNumber  int
	Duration    int // seconds
	BitRate     int // kbps
	Suffix      string
	Size        int64
	Picture     []byte
}

// Extractor reads tags and audio properties from a file on disk. A
// corrupt or tagless container is not an error: implementations fall
// back to filename-derived metadata and return what they can. An error
// means the file itself could not be read.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Metadata, error)
}
