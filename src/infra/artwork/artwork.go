package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"shellac/src/catalog"
	"shellac/src/features/config"
	"shellac/src/features/scanning"
)

// folderImageNames are the conventional cover file basenames, matched
// case-insensitively against directory entries.
var folderImageNames = map[string]bool{
	"cover":  true,
	"folder": true,
	"front":  true,
	"album":  true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// RemoteFetcher fetches album artwork bytes from an external provider.
// A (nil, nil) return means the provider has no artwork for the album.
type RemoteFetcher interface {
	FetchAlbumArt(ctx context.Context, artist, album string) ([]byte, error)
}

// Service normalizes artwork from all three sources into
// content-addressed catalog entities. It implements
// scanning.ArtResolver.
type Service struct {
	config *config.Manager
	remote RemoteFetcher // nil when the remote provider is disabled
}

// NewService creates a new artwork service.
func NewService(cfg *config.Manager, remote RemoteFetcher) *Service {
	return &Service{config: cfg, remote: remote}
}

var _ scanning.ArtResolver = (*Service)(nil)

// FromImage validates image bytes and downscales anything larger than
// the configured edge. The stored bytes feed the content hash, so the
// same source image always maps to the same entity.
func (s *Service) FromImage(data []byte) (*catalog.CoverArt, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	out := data
	maxEdge := s.config.Get().CoverArt.MaxEdge
	if b := img.Bounds(); maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		resized := resize.Thumbnail(uint(maxEdge), uint(maxEdge), img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode resized image: %w", err)
		}
		out = buf.Bytes()
	}

	uri := catalog.CoverURI(out)
	return &catalog.CoverArt{
		ID:   catalog.IDFromURI(uri),
		URI:  uri,
		Data: out,
	}, nil
}

// FolderArt looks for a conventional cover image file (cover.jpg,
// folder.png, ...) inside the directory.
func (s *Service) FolderArt(ctx context.Context, dir string) (*catalog.CoverArt, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		ext := filepath.Ext(name)
		if !imageExtensions[ext] || !folderImageNames[strings.TrimSuffix(name, ext)] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read folder image: %w", err)
		}
		return s.FromImage(data)
	}
	return nil, nil
}

// AlbumArt asks the remote provider for the album's artwork.
func (s *Service) AlbumArt(ctx context.Context, artist, album string) (*catalog.CoverArt, error) {
	if s.remote == nil {
		return nil, nil
	}
	data, err := s.remote.FetchAlbumArt(ctx, artist, album)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return s.FromImage(data)
}
