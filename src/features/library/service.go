package library

import (
	"context"
	"log/slog"

	"shellac/src/catalog"
)

// Service is the read side of the catalog: browsing folders and
// looking up indexed entities. All writes go through reconciliation.
type Service struct {
	store catalog.Store
}

// NewService creates a new library service.
func NewService(store catalog.Store) *Service {
	return &Service{store: store}
}

// Counts returns the catalog entity counts.
func (s *Service) Counts(ctx context.Context) (catalog.CatalogCounts, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		slog.Error("Counts failed", "error", err)
		return catalog.CatalogCounts{}, err
	}
	return counts, nil
}

// GetRootFolders returns the top-level folder of every library root.
func (s *Service) GetRootFolders(ctx context.Context) ([]*catalog.Folder, error) {
	folders, err := s.store.ListRootFolders(ctx)
	if err != nil {
		slog.Error("GetRootFolders failed", "error", err)
		return nil, err
	}
	slog.Debug("GetRootFolders completed", "count", len(folders))
	return folders, nil
}

// GetFolder returns a single folder.
func (s *Service) GetFolder(ctx context.Context, id string) (*catalog.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolderChildren returns a folder's directory listing.
func (s *Service) GetFolderChildren(ctx context.Context, id string) ([]*catalog.FolderChild, error) {
	children, err := s.store.ListFolderChildren(ctx, id)
	if err != nil {
		slog.Error("GetFolderChildren failed", "id", id, "error", err)
		return nil, err
	}
	slog.Debug("GetFolderChildren completed", "id", id, "count", len(children))
	return children, nil
}

// GetSong returns a single song.
func (s *Service) GetSong(ctx context.Context, id string) (*catalog.Song, error) {
	return s.store.GetSong(ctx, id)
}

// GetAlbum returns a single album.
func (s *Service) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	return s.store.GetAlbum(ctx, id)
}

// GetAlbumArtists returns the artists credited on an album.
func (s *Service) GetAlbumArtists(ctx context.Context, albumID string) ([]*catalog.Artist, error) {
	artists, err := s.store.ListAlbumArtists(ctx, albumID)
	if err != nil {
		slog.Error("GetAlbumArtists failed", "albumID", albumID, "error", err)
		return nil, err
	}
	return artists, nil
}

// GetArtist returns a single artist.
func (s *Service) GetArtist(ctx context.Context, id string) (*catalog.Artist, error) {
	return s.store.GetArtist(ctx, id)
}

// GetCoverArt returns a cover art entry with its payload.
func (s *Service) GetCoverArt(ctx context.Context, id string) (*catalog.CoverArt, error) {
	return s.store.GetCoverArt(ctx, id)
}
