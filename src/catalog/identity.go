package catalog

import (
	"encoding/binary"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Canonical URIs name an entity's logical location: a normalized
// filesystem path for folders, folder children and songs, a normalized
// name for artists and albums, and a content hash for cover art. The
// URI is the sole input to identity derivation, so the same logical
// object keeps the same identifier across rescans and process restarts.
//
// Identity follows location: renaming a file changes its canonical URI
// and therefore its identifier. That is the documented trade-off, not
// a bug.

// CanonicalPath normalizes a filesystem path for use inside a URI:
// forward slashes, cleaned, no trailing slash, case-folded so that
// case-insensitive mounts do not spuriously change identity.
func CanonicalPath(p string) string {
	s := filepath.ToSlash(p)
	s = path.Clean(s)
	s = strings.TrimSuffix(s, "/")
	if s == "" || s == "." {
		s = "/"
	}
	return strings.ToLower(s)
}

// FolderURI builds the canonical URI for a directory.
func FolderURI(absPath string) string {
	return "folder:" + CanonicalPath(absPath)
}

// SongURI builds the canonical URI for an audio file.
func SongURI(absPath string) string {
	return "song:" + CanonicalPath(absPath)
}

// ChildURI builds the canonical URI for a folder listing entry.
func ChildURI(absPath string) string {
	return "child:" + CanonicalPath(absPath)
}

// ArtistURI builds the canonical URI for an artist from its normalized
// name, so "The Beatles" and "Beatles, The" share one identity.
func ArtistURI(name string) string {
	return "artist:" + Normalize(name)
}

// AlbumURI builds the canonical URI for an album, scoped by the album
// artist's normalized name.
func AlbumURI(artistName, title string) string {
	return "album:" + Normalize(artistName) + "/" + Normalize(title)
}

// CoverURI builds the canonical URI for an image from its content, so
// identical artwork dedupes regardless of where it was found.
func CoverURI(data []byte) string {
	h1 := xxhash.Sum64(data)
	d := xxhash.New()
	d.Write([]byte{0x1f})
	d.Write(data)
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], h1)
	binary.BigEndian.PutUint64(b[8:], d.Sum64())
	return "cover:" + uuid.Must(uuid.FromBytes(b[:])).String()
}

// IDFromURI derives the fixed-length identifier for a canonical URI:
// two xxhash64 sums (one salted) folded into a UUID. Fast and
// collision-resistant at library scale; not meant to resist an
// adversary.
func IDFromURI(uri string) string {
	h1 := xxhash.Sum64String(uri)
	d := xxhash.New()
	d.Write([]byte{0x1f})
	d.WriteString(uri)
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], h1)
	binary.BigEndian.PutUint64(b[8:], d.Sum64())
	return uuid.Must(uuid.FromBytes(b[:])).String()
}
