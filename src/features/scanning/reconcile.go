package scanning

import (
	"sort"
	"strings"

	"shellac/src/catalog"
)

// Diff computes the reconciliation plan that converges the persisted
// snapshot onto the scanned one. It is a pure function: no I/O, no
// clock, same inputs always yield the same plan, and diffing a snapshot
// against itself yields an empty plan.
//
// scope lists the library roots this scan covered. Removals are only
// planned for path-addressed entities under a scanned root, so a
// partial scan never deletes entries belonging to roots it did not
// visit. Name-addressed entities (artists, albums, cover art) are never
// removed by the plan itself; the store garbage collects them once they
// lose their last referrer.
func Diff(current, desired *catalog.Snapshot, scope []string) *catalog.Plan {
	plan := &catalog.Plan{}
	roots := make([]string, 0, len(scope))
	for _, s := range scope {
		roots = append(roots, catalog.CanonicalPath(s))
	}

	for uri, a := range desired.Artists {
		if cur, ok := current.Artists[uri]; !ok {
			plan.PutArtists = append(plan.PutArtists, a)
			plan.Added++
		} else if !cur.Same(a) {
			plan.PutArtists = append(plan.PutArtists, a)
			plan.Changed++
		}
	}

	for uri, a := range desired.Albums {
		if cur, ok := current.Albums[uri]; !ok {
			plan.PutAlbums = append(plan.PutAlbums, a)
			plan.Added++
		} else if !cur.Same(a) {
			plan.PutAlbums = append(plan.PutAlbums, a)
			plan.Changed++
		}
	}

	for link := range desired.AlbumArtists {
		if _, ok := current.AlbumArtists[link]; !ok {
			plan.PutAlbumArtists = append(plan.PutAlbumArtists, link)
			plan.Added++
		}
	}

	// Cover art is content-addressed, so an entry either exists or it
	// does not; there is no "changed" case.
	for uri, c := range desired.CoverArt {
		if _, ok := current.CoverArt[uri]; !ok {
			plan.PutCoverArt = append(plan.PutCoverArt, c)
			plan.Added++
		}
	}

	for uri, f := range desired.Folders {
		if cur, ok := current.Folders[uri]; !ok {
			plan.PutFolders = append(plan.PutFolders, f)
			plan.Added++
		} else if !cur.Same(f) {
			cpy := *f
			cpy.Created = cur.Created
			plan.PutFolders = append(plan.PutFolders, &cpy)
			plan.Changed++
		}
	}

	for uri, c := range desired.Children {
		if cur, ok := current.Children[uri]; !ok {
			plan.PutChildren = append(plan.PutChildren, c)
			plan.Added++
		} else if !cur.Same(c) {
			plan.PutChildren = append(plan.PutChildren, c)
			plan.Changed++
		}
	}

	for uri, s := range desired.Songs {
		if cur, ok := current.Songs[uri]; !ok {
			plan.PutSongs = append(plan.PutSongs, s)
			plan.Added++
		} else if !cur.Same(s) {
			cpy := *s
			cpy.Created = cur.Created
			plan.PutSongs = append(plan.PutSongs, &cpy)
			plan.Changed++
		}
	}

	for uri, s := range current.Songs {
		if _, ok := desired.Songs[uri]; !ok && inScope(uri, roots) {
			plan.DeleteSongs = append(plan.DeleteSongs, s.ID)
			plan.Removed++
		}
	}
	for uri, c := range current.Children {
		if _, ok := desired.Children[uri]; !ok && inScope(uri, roots) {
			plan.DeleteChildren = append(plan.DeleteChildren, c.ID)
			plan.Removed++
		}
	}

	var goneFolders []*catalog.Folder
	for uri, f := range current.Folders {
		if _, ok := desired.Folders[uri]; !ok && inScope(uri, roots) {
			goneFolders = append(goneFolders, f)
			plan.Removed++
		}
	}

	// Parents before children for inserts, children before parents for
	// deletes, so foreign keys hold at every point in the transaction.
	sort.Slice(plan.PutFolders, func(i, j int) bool {
		di, dj := depth(plan.PutFolders[i].URI), depth(plan.PutFolders[j].URI)
		if di != dj {
			return di < dj
		}
		return plan.PutFolders[i].URI < plan.PutFolders[j].URI
	})
	sort.Slice(goneFolders, func(i, j int) bool {
		di, dj := depth(goneFolders[i].URI), depth(goneFolders[j].URI)
		if di != dj {
			return di > dj
		}
		return goneFolders[i].URI < goneFolders[j].URI
	})
	for _, f := range goneFolders {
		plan.DeleteFolders = append(plan.DeleteFolders, f.ID)
	}

	sort.Slice(plan.PutArtists, func(i, j int) bool { return plan.PutArtists[i].URI < plan.PutArtists[j].URI })
	sort.Slice(plan.PutAlbums, func(i, j int) bool { return plan.PutAlbums[i].URI < plan.PutAlbums[j].URI })
	sort.Slice(plan.PutAlbumArtists, func(i, j int) bool {
		if plan.PutAlbumArtists[i].AlbumID != plan.PutAlbumArtists[j].AlbumID {
			return plan.PutAlbumArtists[i].AlbumID < plan.PutAlbumArtists[j].AlbumID
		}
		return plan.PutAlbumArtists[i].ArtistID < plan.PutAlbumArtists[j].ArtistID
	})
	sort.Slice(plan.PutCoverArt, func(i, j int) bool { return plan.PutCoverArt[i].URI < plan.PutCoverArt[j].URI })
	sort.Slice(plan.PutChildren, func(i, j int) bool { return plan.PutChildren[i].URI < plan.PutChildren[j].URI })
	sort.Slice(plan.PutSongs, func(i, j int) bool { return plan.PutSongs[i].URI < plan.PutSongs[j].URI })
	sort.Strings(plan.DeleteSongs)
	sort.Strings(plan.DeleteChildren)

	return plan
}

// inScope reports whether a path-addressed URI falls under one of the
// scanned roots.
func inScope(uri string, roots []string) bool {
	if len(roots) == 0 {
		return true
	}
	_, p, ok := strings.Cut(uri, ":")
	if !ok {
		return false
	}
	for _, root := range roots {
		if p == root || strings.HasPrefix(p, root+"/") {
			return true
		}
	}
	return false
}

func depth(uri string) int {
	return strings.Count(uri, "/")
}
