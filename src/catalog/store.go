package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store reads when no row matches.
var ErrNotFound = errors.New("not found")

// ErrIntegrity is returned when a write would leave a dangling
// reference or violate a uniqueness invariant. It indicates a logic
// defect, not bad input, and fails the whole reconciliation
// transaction.
var ErrIntegrity = errors.New("catalog integrity violation")

// Snapshot is the complete entity set of a catalog state, keyed by
// canonical URI. Scans build one from the filesystem; the store loads
// one from the persisted tables. Cover art entries carry no payload.
type Snapshot struct {
	Folders      map[string]*Folder
	Children     map[string]*FolderChild
	Songs        map[string]*Song
	Albums       map[string]*Album
	Artists      map[string]*Artist
	AlbumArtists map[AlbumArtist]struct{}
	CoverArt     map[string]*CoverArt
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Folders:      make(map[string]*Folder),
		Children:     make(map[string]*FolderChild),
		Songs:        make(map[string]*Song),
		Albums:       make(map[string]*Album),
		Artists:      make(map[string]*Artist),
		AlbumArtists: make(map[AlbumArtist]struct{}),
		CoverArt:     make(map[string]*CoverArt),
	}
}

// Plan is the reconciliation work computed by diffing a scanned
// snapshot against the persisted one. Put slices contain both added
// and changed entities (the store upserts); folders are ordered
// parents before children, deletions the other way around. Applying a
// plan is a single logically atomic operation.
type Plan struct {
	PutArtists      []*Artist
	PutAlbums       []*Album
	PutAlbumArtists []AlbumArtist
	PutCoverArt     []*CoverArt
	PutFolders      []*Folder
	PutChildren     []*FolderChild
	PutSongs        []*Song

	DeleteSongs    []string
	DeleteChildren []string
	DeleteFolders  []string

	// Partition counts, for scan summaries and idempotence checks.
	Added   int
	Changed int
	Removed int
}

// Empty reports whether applying the plan would mutate nothing.
func (p *Plan) Empty() bool {
	return p.Added == 0 && p.Changed == 0 && p.Removed == 0
}

// CatalogCounts summarizes the persisted catalog.
type CatalogCounts struct {
	Folders  int
	Songs    int
	Albums   int
	Artists  int
	CoverArt int
}

// Store is the relational persistence layer for the catalog. Apply
// runs in a single transaction; readers observe either the pre- or
// post-reconciliation catalog, never a mix.
type Store interface {
	// Snapshot loads the persisted entity set (cover art without
	// payloads).
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Apply applies a reconciliation plan atomically, then garbage
	// collects albums, artists and cover art left without referrers.
	Apply(ctx context.Context, plan *Plan) error

	// Read operations consumed by the protocol/API collaborator.
	GetFolder(ctx context.Context, id string) (*Folder, error)
	ListRootFolders(ctx context.Context) ([]*Folder, error)
	ListFolderChildren(ctx context.Context, folderID string) ([]*FolderChild, error)
	GetSong(ctx context.Context, id string) (*Song, error)
	GetAlbum(ctx context.Context, id string) (*Album, error)
	GetArtist(ctx context.Context, id string) (*Artist, error)
	ListAlbumArtists(ctx context.Context, albumID string) ([]*Artist, error)
	GetCoverArt(ctx context.Context, id string) (*CoverArt, error)
	Counts(ctx context.Context) (CatalogCounts, error)
}
