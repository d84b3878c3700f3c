package scanning

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"shellac/src/catalog"
	"shellac/src/features/config"
)

// ArtResolver turns the three cover art sources into content-addressed
// catalog entities. FolderArt and AlbumArt return (nil, nil) when no
// artwork is available, which is the common case and not an error.
type ArtResolver interface {
	// FromImage normalizes embedded picture bytes into a cover art
	// entity.
	FromImage(data []byte) (*catalog.CoverArt, error)
	// FolderArt looks for a cover image file inside a directory.
	FolderArt(ctx context.Context, dir string) (*catalog.CoverArt, error)
	// AlbumArt fetches artwork for an album from the remote provider.
	AlbumArt(ctx context.Context, artist, album string) (*catalog.CoverArt, error)
}

// BuildStats counts what one snapshot build observed.
type BuildStats struct {
	Folders int
	Files   int
	Errors  int
}

// Builder walks library roots and assembles the desired catalog
// snapshot: extraction runs on a bounded worker pool, assembly is
// sequential and deterministic so identical trees always produce
// identical snapshots.
type Builder struct {
	config    *config.Manager
	walker    *Walker
	extractor Extractor
	art       ArtResolver
	logger    *slog.Logger
}

// NewBuilder creates a new Builder.
func NewBuilder(cfg *config.Manager, walker *Walker, extractor Extractor, art ArtResolver, logger *slog.Logger) *Builder {
	return &Builder{
		config:    cfg,
		walker:    walker,
		extractor: extractor,
		art:       art,
		logger:    logger,
	}
}

type audioFile struct {
	path string
	dir  string
	size int64
	meta *Metadata
}

// Build scans the given roots and returns the snapshot the catalog
// should converge to. The persisted snapshot seeds the name matchers so
// new files attach to existing artists and albums instead of spawning
// near-duplicate entities.
func (b *Builder) Build(ctx context.Context, roots []string, persisted *catalog.Snapshot) (*catalog.Snapshot, BuildStats, error) {
	snap := catalog.NewSnapshot()
	var stats BuildStats
	now := time.Now().UTC()

	// Only a configured library root becomes a parentless folder. A scan
	// scoped to a subfolder must anchor its entry point to the real
	// parent, or the folder forest would be rewired by partial scans.
	libraryRoots := make(map[string]bool)
	for _, r := range b.config.Get().LibraryRoots {
		libraryRoots[catalog.CanonicalPath(r)] = true
	}

	var files []*audioFile
	for _, root := range roots {
		entryPoint := true
		err := b.walker.Walk(ctx, root, func(e WalkEntry) error {
			if e.Dir {
				uri := catalog.FolderURI(e.Path)
				folder := &catalog.Folder{
					ID:      catalog.IDFromURI(uri),
					URI:     uri,
					Name:    filepath.Base(e.Path),
					Created: now,
				}
				if !entryPoint || !libraryRoots[catalog.CanonicalPath(e.Path)] {
					parentURI := catalog.FolderURI(filepath.Dir(e.Path))
					folder.ParentID = catalog.IDFromURI(parentURI)
					b.addChild(snap, e.Path, folder.ParentID, folder.Name, "")
				}
				entryPoint = false
				snap.Folders[uri] = folder
				stats.Folders++
				return nil
			}
			if !IsSupportedAudio(e.Path) {
				return nil
			}
			files = append(files, &audioFile{path: e.Path, dir: filepath.Dir(e.Path), size: e.Size})
			stats.Files++
			return nil
		})
		if err != nil {
			return nil, stats, err
		}
	}

	var extractErrors atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			meta, err := b.extractor.Extract(gctx, f.path)
			if err != nil {
				b.logger.Warn("Builder: could not read file, leaving it out of the snapshot", "path", f.path, "error", err)
				extractErrors.Add(1)
				return nil
			}
			meta.Size = f.size
			f.meta = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	stats.Errors = int(extractErrors.Load())

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	b.assemble(ctx, snap, files, persisted, now)
	return snap, stats, nil
}

func (b *Builder) workers() int {
	if w := b.config.Get().Scan.Workers; w > 0 {
		return w
	}
	return 4
}

func (b *Builder) addChild(snap *catalog.Snapshot, path, folderID, name, songID string) {
	uri := catalog.ChildURI(path)
	snap.Children[uri] = &catalog.FolderChild{
		ID:       catalog.IDFromURI(uri),
		FolderID: folderID,
		URI:      uri,
		Path:     filepath.Base(path),
		Name:     name,
		SongID:   songID,
	}
}

// assemble resolves names, artwork and relations for the extracted
// files and fills the snapshot's entity maps.
func (b *Builder) assemble(ctx context.Context, snap *catalog.Snapshot, files []*audioFile, persisted *catalog.Snapshot, now time.Time) {
	cfg := b.config.Get()

	artists := catalog.NewMatcher(cfg.Matcher.SimilarityThreshold)
	albums := make(map[string]*catalog.Matcher)
	b.seedMatchers(artists, albums, persisted, cfg.Matcher.SimilarityThreshold)

	folderArt := make(map[string]*catalog.CoverArt)
	folderArtSeen := make(map[string]bool)
	remoteArt := make(map[string]*catalog.CoverArt)
	remoteArtSeen := make(map[string]bool)
	firstSongArt := make(map[string]string) // folder URI -> cover art ID

	for _, f := range files {
		if f.meta == nil {
			continue
		}
		meta := f.meta

		artist := b.resolveArtist(snap, artists, meta.Artist)
		albumArtist := artist
		if name := strings.TrimSpace(meta.AlbumArtist); name != "" && (artist == nil || !strings.EqualFold(name, artist.Name)) {
			albumArtist = b.resolveArtist(snap, artists, name)
		}
		album := b.resolveAlbum(snap, albums, albumArtist, meta.Album, cfg.Matcher.SimilarityThreshold)
		if album != nil && albumArtist != nil {
			snap.AlbumArtists[catalog.AlbumArtist{AlbumID: album.ID, ArtistID: albumArtist.ID}] = struct{}{}
		}

		art := b.resolveArt(ctx, meta, f.dir, artist, album, cfg, folderArt, folderArtSeen, remoteArt, remoteArtSeen)
		if art != nil {
			snap.CoverArt[art.URI] = art
		}

		uri := catalog.SongURI(f.path)
		song := &catalog.Song{
			ID:          catalog.IDFromURI(uri),
			URI:         uri,
			Title:       meta.Title,
			Created:     now,
			ContentType: ContentTypeFor(meta.Suffix),
			Suffix:      meta.Suffix,
			Size:        meta.Size,
			TrackNumber: meta.TrackNumber,
			DiscNumber:  meta.DiscNumber,
			Duration:    meta.Duration,
			BitRate:     meta.BitRate,
			Genre:       meta.Genre,
		}
		if meta.Year > 0 {
			d := time.Date(meta.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			song.ReleaseDate = &d
		}
		if artist != nil {
			song.ArtistID = artist.ID
		}
		if album != nil {
			song.AlbumID = album.ID
		}
		if art != nil {
			song.CoverArtID = art.ID
			if album != nil && album.CoverArtID == "" {
				album.CoverArtID = art.ID
			}
			if albumArtist != nil && albumArtist.CoverArtID == "" {
				albumArtist.CoverArtID = art.ID
			}
		}
		snap.Songs[uri] = song

		folderURI := catalog.FolderURI(f.dir)
		if folder, ok := snap.Folders[folderURI]; ok {
			b.addChild(snap, f.path, folder.ID, song.Title, song.ID)
			if art != nil && firstSongArt[folderURI] == "" {
				firstSongArt[folderURI] = art.ID
			}
		}
	}

	for uri, folder := range snap.Folders {
		if folder.CoverArtID != "" {
			continue
		}
		if art, ok := folderArt[uri]; ok && art != nil {
			folder.CoverArtID = art.ID
		} else if id := firstSongArt[uri]; id != "" {
			folder.CoverArtID = id
		}
	}
}

// seedMatchers loads persisted names so matching is stable across
// scans.
func (b *Builder) seedMatchers(artists *catalog.Matcher, albums map[string]*catalog.Matcher, persisted *catalog.Snapshot, threshold float64) {
	if persisted == nil {
		return
	}
	artistByID := make(map[string]*catalog.Artist, len(persisted.Artists))
	for _, a := range persisted.Artists {
		artists.Add(a.Name)
		artistByID[a.ID] = a
	}
	albumByID := make(map[string]*catalog.Album, len(persisted.Albums))
	for _, a := range persisted.Albums {
		albumByID[a.ID] = a
	}
	for link := range persisted.AlbumArtists {
		artist, ok := artistByID[link.ArtistID]
		if !ok {
			continue
		}
		album, ok := albumByID[link.AlbumID]
		if !ok {
			continue
		}
		key := catalog.Normalize(artist.Name)
		m, ok := albums[key]
		if !ok {
			m = catalog.NewMatcher(threshold)
			albums[key] = m
		}
		m.Add(album.Title)
	}
}

func (b *Builder) resolveArtist(snap *catalog.Snapshot, matcher *catalog.Matcher, name string) *catalog.Artist {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	canonical, _ := matcher.Resolve(name)
	uri := catalog.ArtistURI(canonical)
	if a, ok := snap.Artists[uri]; ok {
		return a
	}
	a := &catalog.Artist{
		ID:   catalog.IDFromURI(uri),
		URI:  uri,
		Name: canonical,
	}
	snap.Artists[uri] = a
	return a
}

func (b *Builder) resolveAlbum(snap *catalog.Snapshot, albums map[string]*catalog.Matcher, albumArtist *catalog.Artist, title string, threshold float64) *catalog.Album {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	artistName := ""
	if albumArtist != nil {
		artistName = albumArtist.Name
	}
	key := catalog.Normalize(artistName)
	m, ok := albums[key]
	if !ok {
		m = catalog.NewMatcher(threshold)
		albums[key] = m
	}
	canonical, _ := m.Resolve(title)
	uri := catalog.AlbumURI(artistName, canonical)
	if a, ok := snap.Albums[uri]; ok {
		return a
	}
	a := &catalog.Album{
		ID:    catalog.IDFromURI(uri),
		URI:   uri,
		Title: canonical,
	}
	snap.Albums[uri] = a
	return a
}

// resolveArt applies source precedence: embedded picture, then a cover
// image in the file's directory, then the remote provider. Folder and
// remote lookups are cached for the duration of the build.
func (b *Builder) resolveArt(
	ctx context.Context,
	meta *Metadata,
	dir string,
	artist *catalog.Artist,
	album *catalog.Album,
	cfg *config.Config,
	folderArt map[string]*catalog.CoverArt, folderArtSeen map[string]bool,
	remoteArt map[string]*catalog.CoverArt, remoteArtSeen map[string]bool,
) *catalog.CoverArt {
	if cfg.CoverArt.Embedded && len(meta.Picture) > 0 {
		art, err := b.art.FromImage(meta.Picture)
		if err != nil {
			b.logger.Warn("Builder: could not decode embedded picture", "error", err)
		} else if art != nil {
			return art
		}
	}

	if cfg.CoverArt.FolderImages {
		uri := catalog.FolderURI(dir)
		if !folderArtSeen[uri] {
			folderArtSeen[uri] = true
			art, err := b.art.FolderArt(ctx, dir)
			if err != nil {
				b.logger.Warn("Builder: could not read folder image", "dir", dir, "error", err)
			}
			folderArt[uri] = art
		}
		if art := folderArt[uri]; art != nil {
			return art
		}
	}

	if cfg.CoverArt.Remote.Enabled && artist != nil && album != nil {
		key := album.URI
		if !remoteArtSeen[key] {
			remoteArtSeen[key] = true
			art, err := b.art.AlbumArt(ctx, artist.Name, album.Title)
			if err != nil {
				b.logger.Warn("Builder: remote artwork lookup failed", "artist", artist.Name, "album", album.Title, "error", err)
			}
			remoteArt[key] = art
		}
		if art := remoteArt[key]; art != nil {
			return art
		}
	}
	return nil
}
