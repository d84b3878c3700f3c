package scanning

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"shellac/src/catalog"
	"shellac/src/features/config"
)

// fakeExtractor serves canned metadata by path and falls back to the
// bare filename, mirroring what the real extractor does for unreadable
// containers.
type fakeExtractor struct {
	metas map[string]*Metadata
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	if m, ok := f.metas[path]; ok {
		cp := *m
		return &cp, nil
	}
	base := filepath.Base(path)
	return &Metadata{
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Suffix: strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), "."),
	}, nil
}

type fakeArt struct{}

func (fakeArt) FromImage(data []byte) (*catalog.CoverArt, error) {
	uri := catalog.CoverURI(data)
	return &catalog.CoverArt{ID: catalog.IDFromURI(uri), URI: uri, Data: data}, nil
}

func (fakeArt) FolderArt(ctx context.Context, dir string) (*catalog.CoverArt, error) {
	return nil, nil
}

func (fakeArt) AlbumArt(ctx context.Context, artist, album string) (*catalog.CoverArt, error) {
	return nil, nil
}

func testConfig(roots ...string) *config.Manager {
	return config.NewManager(&config.Config{
		LibraryRoots: roots,
		Scan:         config.Scan{Workers: 2},
		Matcher:      config.Matcher{SimilarityThreshold: catalog.DefaultSimilarityThreshold},
		CoverArt:     config.CoverArt{Embedded: true, FolderImages: false},
	})
}

func newTestBuilder(cfg *config.Manager, metas map[string]*Metadata) *Builder {
	logger := discardLogger()
	return NewBuilder(cfg, NewWalker(logger), &fakeExtractor{metas: metas}, fakeArt{}, logger)
}

func TestBuilderAssemblesHierarchy(t *testing.T) {
	root := t.TempDir()
	track1 := filepath.Join(root, "rock", "abbey road", "01 come together.ogg")
	track2 := filepath.Join(root, "rock", "abbey road", "02 something.ogg")
	writeFile(t, track1, []byte("x"))
	writeFile(t, track2, []byte("x"))

	metas := map[string]*Metadata{
		track1: {Title: "Come Together", Artist: "The Beatles", Album: "Abbey Road", TrackNumber: 1, Suffix: "ogg"},
		track2: {Title: "Something", Artist: "Beatles, The", Album: "Abbey Road", TrackNumber: 2, Suffix: "ogg"},
	}
	b := newTestBuilder(testConfig(root), metas)

	snap, stats, err := b.Build(context.Background(), []string{root}, catalog.NewSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 2 || stats.Folders != 3 {
		t.Errorf("stats = %+v, want 2 files in 3 folders", stats)
	}
	if len(snap.Songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(snap.Songs))
	}
	if len(snap.Artists) != 1 {
		t.Fatalf("tagging variants did not collapse: %d artists", len(snap.Artists))
	}
	if len(snap.Albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(snap.Albums))
	}
	if len(snap.AlbumArtists) != 1 {
		t.Errorf("expected 1 album-artist link, got %d", len(snap.AlbumArtists))
	}

	// Root folder has no parent; the album folder chains up to it.
	rootFolder := snap.Folders[catalog.FolderURI(root)]
	if rootFolder == nil || rootFolder.ParentID != "" {
		t.Errorf("root folder missing or has a parent: %+v", rootFolder)
	}
	albumFolder := snap.Folders[catalog.FolderURI(filepath.Dir(track1))]
	if albumFolder == nil {
		t.Fatal("album folder missing")
	}
	wantParent := catalog.IDFromURI(catalog.FolderURI(filepath.Join(root, "rock")))
	if albumFolder.ParentID != wantParent {
		t.Errorf("album folder parent = %s, want %s", albumFolder.ParentID, wantParent)
	}

	// 2 subfolder markers + 2 song entries.
	if len(snap.Children) != 4 {
		t.Errorf("expected 4 folder children, got %d", len(snap.Children))
	}
	songChild := snap.Children[catalog.ChildURI(track1)]
	if songChild == nil || songChild.SongID == "" {
		t.Errorf("song child missing or unlinked: %+v", songChild)
	}
}

func TestBuilderAttachesToPersistedArtists(t *testing.T) {
	root := t.TempDir()
	track := filepath.Join(root, "new.ogg")
	writeFile(t, track, []byte("x"))

	persisted := catalog.NewSnapshot()
	uri := catalog.ArtistURI("The Beatles")
	persisted.Artists[uri] = &catalog.Artist{
		ID:   catalog.IDFromURI(uri),
		URI:  uri,
		Name: "The Beatles",
	}

	metas := map[string]*Metadata{
		track: {Title: "New", Artist: "Beatles, The", Suffix: "ogg"},
	}
	b := newTestBuilder(testConfig(root), metas)

	snap, _, err := b.Build(context.Background(), []string{root}, persisted)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := snap.Artists[uri]
	if !ok {
		t.Fatalf("scanned artist did not land on persisted identity, artists: %v", snap.Artists)
	}
	if got.Name != "The Beatles" {
		t.Errorf("canonical name = %q, want persisted spelling", got.Name)
	}
}

func TestBuilderDeduplicatesEmbeddedArt(t *testing.T) {
	root := t.TempDir()
	track1 := filepath.Join(root, "a.ogg")
	track2 := filepath.Join(root, "b.ogg")
	writeFile(t, track1, []byte("x"))
	writeFile(t, track2, []byte("x"))

	pic := []byte{0xFF, 0xD8, 0xFF, 1, 2, 3}
	metas := map[string]*Metadata{
		track1: {Title: "A", Artist: "X", Album: "Z", Picture: pic, Suffix: "ogg"},
		track2: {Title: "B", Artist: "X", Album: "Z", Picture: pic, Suffix: "ogg"},
	}
	b := newTestBuilder(testConfig(root), metas)

	snap, _, err := b.Build(context.Background(), []string{root}, catalog.NewSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.CoverArt) != 1 {
		t.Fatalf("identical pictures not deduplicated: %d cover art entries", len(snap.CoverArt))
	}
	var artID string
	for _, a := range snap.CoverArt {
		artID = a.ID
	}
	for _, s := range snap.Songs {
		if s.CoverArtID != artID {
			t.Errorf("song %s not linked to shared art", s.Title)
		}
	}
	folder := snap.Folders[catalog.FolderURI(root)]
	if folder.CoverArtID != artID {
		t.Errorf("folder did not inherit song art")
	}
	for _, a := range snap.Albums {
		if a.CoverArtID != artID {
			t.Errorf("album did not inherit song art")
		}
	}
}

func TestBuilderScopedScanKeepsFolderParent(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "rock")
	track := filepath.Join(sub, "a.ogg")
	writeFile(t, track, []byte("x"))
	metas := map[string]*Metadata{
		track: {Title: "A", Artist: "X", Album: "Z", Suffix: "ogg"},
	}
	b := newTestBuilder(testConfig(root), metas)

	full, _, err := b.Build(context.Background(), []string{root}, catalog.NewSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	// Rescanning only the subfolder must keep it attached to its real
	// parent, not promote it to a library root.
	partial, _, err := b.Build(context.Background(), []string{sub}, full)
	if err != nil {
		t.Fatal(err)
	}
	folder := partial.Folders[catalog.FolderURI(sub)]
	if folder == nil {
		t.Fatal("scanned subfolder missing from snapshot")
	}
	wantParent := catalog.IDFromURI(catalog.FolderURI(root))
	if folder.ParentID != wantParent {
		t.Errorf("subfolder parent = %q, want %q", folder.ParentID, wantParent)
	}
	if partial.Children[catalog.ChildURI(sub)] == nil {
		t.Error("parent's listing entry for the subfolder missing")
	}

	plan := Diff(full, partial, []string{sub})
	if !plan.Empty() {
		t.Errorf("rescanning an unchanged subfolder produced work: added=%d changed=%d removed=%d",
			plan.Added, plan.Changed, plan.Removed)
	}
}

// cancellingExtractor cancels the scan from inside the first extraction
// and counts how many extractions ran.
type cancellingExtractor struct {
	cancel context.CancelFunc
	calls  atomic.Int64
}

func (c *cancellingExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	if c.calls.Add(1) == 1 {
		c.cancel()
	}
	return &Metadata{Title: filepath.Base(path), Suffix: "ogg"}, nil
}

func TestBuilderStopsExtractingWhenCancelled(t *testing.T) {
	root := t.TempDir()
	const total = 50
	for i := 0; i < total; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("%02d.ogg", i)), []byte("x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ext := &cancellingExtractor{cancel: cancel}
	logger := discardLogger()
	b := NewBuilder(testConfig(root), NewWalker(logger), ext, fakeArt{}, logger)

	if _, _, err := b.Build(ctx, []string{root}, catalog.NewSnapshot()); err == nil {
		t.Fatal("cancelled build returned no error")
	}
	if n := ext.calls.Load(); n >= total {
		t.Errorf("all %d files were read after cancellation", total)
	}
}

func TestBuilderIndexesUnreadableTags(t *testing.T) {
	root := t.TempDir()
	track := filepath.Join(root, "Neil Young - Harvest Moon.mp3")
	writeFile(t, track, []byte("not really audio"))

	// No canned metadata: the fake falls back to the filename, the way
	// the real extractor does for corrupt containers.
	b := newTestBuilder(testConfig(root), nil)
	snap, stats, err := b.Build(context.Background(), []string{root}, catalog.NewSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Errors != 0 {
		t.Errorf("fallback metadata counted as error: %d", stats.Errors)
	}
	song := snap.Songs[catalog.SongURI(track)]
	if song == nil {
		t.Fatal("unparseable file dropped from snapshot")
	}
	if song.Title == "" {
		t.Error("fallback song has no title")
	}
	if song.ContentType != "audio/mpeg" {
		t.Errorf("content type = %q, want audio/mpeg", song.ContentType)
	}
}

func TestBuilderIsDeterministic(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.ogg", "a.ogg", "b.ogg"} {
		writeFile(t, filepath.Join(root, name), []byte("x"))
	}
	b := newTestBuilder(testConfig(root), nil)

	first, _, err := b.Build(context.Background(), []string{root}, catalog.NewSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := b.Build(context.Background(), []string{root}, catalog.NewSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	plan := Diff(first, second, []string{root})
	if !plan.Empty() {
		t.Errorf("two builds of the same tree differ: added=%d changed=%d removed=%d",
			plan.Added, plan.Changed, plan.Removed)
	}
}
