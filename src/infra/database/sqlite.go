package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shellac/src/catalog"
)

// SqliteCatalog is a SQLite implementation of the catalog.Store
// interface.
type SqliteCatalog struct {
	db *sql.DB
}

// NewSqliteCatalog opens (or creates) the catalog database and brings
// the schema up to date. WAL keeps readers unblocked while a
// reconciliation transaction is in flight.
func NewSqliteCatalog(path string) (*SqliteCatalog, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SqliteCatalog{db: db}, nil
}

var _ catalog.Store = (*SqliteCatalog)(nil)

// Close closes the underlying database.
func (d *SqliteCatalog) Close() error {
	return d.db.Close()
}

// nullable maps an empty string to NULL for optional reference columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Snapshot loads the persisted entity set. Cover art rows are loaded
// without their payloads; reconciliation only needs to know which
// content hashes exist.
func (d *SqliteCatalog) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	snap := catalog.NewSnapshot()

	rows, err := d.db.QueryContext(ctx, `SELECT id, uri FROM cover_art`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		c := &catalog.CoverArt{}
		if err := rows.Scan(&c.ID, &c.URI); err != nil {
			rows.Close()
			return nil, err
		}
		snap.CoverArt[c.URI] = c
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT id, uri, name, cover_art_id FROM artists`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		a := &catalog.Artist{}
		var cover sql.NullString
		if err := rows.Scan(&a.ID, &a.URI, &a.Name, &cover); err != nil {
			rows.Close()
			return nil, err
		}
		a.CoverArtID = cover.String
		snap.Artists[a.URI] = a
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT id, uri, title, cover_art_id FROM albums`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		a := &catalog.Album{}
		var cover sql.NullString
		if err := rows.Scan(&a.ID, &a.URI, &a.Title, &cover); err != nil {
			rows.Close()
			return nil, err
		}
		a.CoverArtID = cover.String
		snap.Albums[a.URI] = a
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT album_id, artist_id FROM album_artists`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var link catalog.AlbumArtist
		if err := rows.Scan(&link.AlbumID, &link.ArtistID); err != nil {
			rows.Close()
			return nil, err
		}
		snap.AlbumArtists[link] = struct{}{}
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT id, parent_id, uri, name, cover_art_id, created FROM folders`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snap.Folders[f.URI] = f
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `
		SELECT id, uri, title, created, release_date, cover_art_id, artist_id, album_id,
			content_type, suffix, size, track_number, disc_number, duration, bit_rate, genre
		FROM songs
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snap.Songs[s.URI] = s
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT id, folder_id, uri, path, name, song_id FROM folder_children`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c := &catalog.FolderChild{}
		var songID sql.NullString
		if err := rows.Scan(&c.ID, &c.FolderID, &c.URI, &c.Path, &c.Name, &songID); err != nil {
			return nil, err
		}
		c.SongID = songID.String
		snap.Children[c.URI] = c
	}
	return snap, rows.Err()
}

// Apply applies a reconciliation plan in one transaction, then garbage
// collects albums, artists and cover art that lost their last
// referrer. Readers see either the whole plan or none of it.
func (d *SqliteCatalog) Apply(ctx context.Context, plan *catalog.Plan) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range plan.PutCoverArt {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrIntegrity, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cover_art (id, uri, data) VALUES (?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, c.ID, c.URI, c.Data)
		if err != nil {
			slog.Error("Apply: failed to insert cover art", "id", c.ID, "error", err)
			return err
		}
	}

	for _, a := range plan.PutArtists {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrIntegrity, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO artists (id, uri, name, cover_art_id) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, cover_art_id = excluded.cover_art_id
		`, a.ID, a.URI, a.Name, nullable(a.CoverArtID))
		if err != nil {
			slog.Error("Apply: failed to upsert artist", "id", a.ID, "error", err)
			return err
		}
	}

	for _, a := range plan.PutAlbums {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrIntegrity, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO albums (id, uri, title, cover_art_id) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title, cover_art_id = excluded.cover_art_id
		`, a.ID, a.URI, a.Title, nullable(a.CoverArtID))
		if err != nil {
			slog.Error("Apply: failed to upsert album", "id", a.ID, "error", err)
			return err
		}
	}

	for _, link := range plan.PutAlbumArtists {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO album_artists (album_id, artist_id) VALUES (?, ?)
			ON CONFLICT(album_id, artist_id) DO NOTHING
		`, link.AlbumID, link.ArtistID)
		if err != nil {
			slog.Error("Apply: failed to link album artist", "album", link.AlbumID, "artist", link.ArtistID, "error", err)
			return err
		}
	}

	// Plan folders arrive parents-first, so the parent foreign key
	// always resolves.
	for _, f := range plan.PutFolders {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrIntegrity, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO folders (id, parent_id, uri, name, cover_art_id, created) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET parent_id = excluded.parent_id, name = excluded.name,
				cover_art_id = excluded.cover_art_id
		`, f.ID, nullable(f.ParentID), f.URI, f.Name, nullable(f.CoverArtID), f.Created.UTC().Format(time.RFC3339))
		if err != nil {
			slog.Error("Apply: failed to upsert folder", "id", f.ID, "error", err)
			return err
		}
	}

	for _, s := range plan.PutSongs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrIntegrity, err)
		}
		var releaseDate any
		if s.ReleaseDate != nil {
			releaseDate = s.ReleaseDate.UTC().Format(time.RFC3339)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO songs (id, uri, title, created, release_date, cover_art_id, artist_id, album_id,
				content_type, suffix, size, track_number, disc_number, duration, bit_rate, genre)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title, release_date = excluded.release_date,
				cover_art_id = excluded.cover_art_id, artist_id = excluded.artist_id, album_id = excluded.album_id,
				content_type = excluded.content_type, suffix = excluded.suffix, size = excluded.size,
				track_number = excluded.track_number, disc_number = excluded.disc_number,
				duration = excluded.duration, bit_rate = excluded.bit_rate, genre = excluded.genre
		`, s.ID, s.URI, s.Title, s.Created.UTC().Format(time.RFC3339), releaseDate,
			nullable(s.CoverArtID), nullable(s.ArtistID), nullable(s.AlbumID),
			s.ContentType, s.Suffix, s.Size, s.TrackNumber, s.DiscNumber, s.Duration, s.BitRate, s.Genre)
		if err != nil {
			slog.Error("Apply: failed to upsert song", "id", s.ID, "error", err)
			return err
		}
	}

	for _, c := range plan.PutChildren {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrIntegrity, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO folder_children (id, folder_id, uri, path, name, song_id) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET folder_id = excluded.folder_id, path = excluded.path,
				name = excluded.name, song_id = excluded.song_id
		`, c.ID, c.FolderID, c.URI, c.Path, c.Name, nullable(c.SongID))
		if err != nil {
			slog.Error("Apply: failed to upsert folder child", "id", c.ID, "error", err)
			return err
		}
	}

	for _, id := range plan.DeleteChildren {
		if _, err = tx.ExecContext(ctx, `DELETE FROM folder_children WHERE id = ?`, id); err != nil {
			return err
		}
	}
	for _, id := range plan.DeleteSongs {
		if _, err = tx.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id); err != nil {
			return err
		}
	}
	// Plan folder deletes arrive children-first.
	for _, id := range plan.DeleteFolders {
		if _, err = tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
			return err
		}
	}

	if err := collectOrphans(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("Apply: reconciliation plan committed",
		"added", plan.Added, "changed", plan.Changed, "removed", plan.Removed)
	return nil
}

// collectOrphans removes albums without songs, artists without songs or
// album credits, and cover art nothing references anymore. Deleting an
// album cascades its artist links, which can orphan the artist, which
// can orphan its cover art, hence the order.
func collectOrphans(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM albums WHERE NOT EXISTS (
			SELECT 1 FROM songs WHERE songs.album_id = albums.id
		)
	`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM artists WHERE NOT EXISTS (
			SELECT 1 FROM songs WHERE songs.artist_id = artists.id
		) AND NOT EXISTS (
			SELECT 1 FROM album_artists WHERE album_artists.artist_id = artists.id
		)
	`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM cover_art WHERE NOT EXISTS (
			SELECT 1 FROM songs WHERE songs.cover_art_id = cover_art.id
		) AND NOT EXISTS (
			SELECT 1 FROM albums WHERE albums.cover_art_id = cover_art.id
		) AND NOT EXISTS (
			SELECT 1 FROM artists WHERE artists.cover_art_id = cover_art.id
		) AND NOT EXISTS (
			SELECT 1 FROM folders WHERE folders.cover_art_id = cover_art.id
		)
	`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*catalog.Folder, error) {
	f := &catalog.Folder{}
	var parent, cover sql.NullString
	var created string
	if err := row.Scan(&f.ID, &parent, &f.URI, &f.Name, &cover, &created); err != nil {
		return nil, err
	}
	f.ParentID = parent.String
	f.CoverArtID = cover.String
	f.Created, _ = time.Parse(time.RFC3339, created)
	return f, nil
}

func scanSong(row rowScanner) (*catalog.Song, error) {
	s := &catalog.Song{}
	var created string
	var releaseDate, cover, artist, album sql.NullString
	err := row.Scan(&s.ID, &s.URI, &s.Title, &created, &releaseDate, &cover, &artist, &album,
		&s.ContentType, &s.Suffix, &s.Size, &s.TrackNumber, &s.DiscNumber, &s.Duration, &s.BitRate, &s.Genre)
	if err != nil {
		return nil, err
	}
	s.Created, _ = time.Parse(time.RFC3339, created)
	if releaseDate.Valid {
		if t, err := time.Parse(time.RFC3339, releaseDate.String); err == nil {
			s.ReleaseDate = &t
		}
	}
	s.CoverArtID = cover.String
	s.ArtistID = artist.String
	s.AlbumID = album.String
	return s, nil
}

// GetFolder gets a folder from the database.
func (d *SqliteCatalog) GetFolder(ctx context.Context, id string) (*catalog.Folder, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, parent_id, uri, name, cover_art_id, created FROM folders WHERE id = ?
	`, id)
	f, err := scanFolder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ListRootFolders lists the folders without a parent, one per library
// root.
func (d *SqliteCatalog) ListRootFolders(ctx context.Context) ([]*catalog.Folder, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, parent_id, uri, name, cover_art_id, created FROM folders
		WHERE parent_id IS NULL ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []*catalog.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// ListFolderChildren lists a folder's entries, subfolders and songs
// alike, ordered by name.
func (d *SqliteCatalog) ListFolderChildren(ctx context.Context, folderID string) ([]*catalog.FolderChild, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, folder_id, uri, path, name, song_id FROM folder_children
		WHERE folder_id = ? ORDER BY name
	`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := []*catalog.FolderChild{}
	for rows.Next() {
		c := &catalog.FolderChild{}
		var songID sql.NullString
		if err := rows.Scan(&c.ID, &c.FolderID, &c.URI, &c.Path, &c.Name, &songID); err != nil {
			return nil, err
		}
		c.SongID = songID.String
		children = append(children, c)
	}
	return children, rows.Err()
}

// GetSong gets a song from the database.
func (d *SqliteCatalog) GetSong(ctx context.Context, id string) (*catalog.Song, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, uri, title, created, release_date, cover_art_id, artist_id, album_id,
			content_type, suffix, size, track_number, disc_number, duration, bit_rate, genre
		FROM songs WHERE id = ?
	`, id)
	s, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetAlbum gets an album from the database.
func (d *SqliteCatalog) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, uri, title, cover_art_id FROM albums WHERE id = ?`, id)

	a := &catalog.Album{}
	var cover sql.NullString
	err := row.Scan(&a.ID, &a.URI, &a.Title, &cover)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	a.CoverArtID = cover.String
	return a, nil
}

// GetArtist gets an artist from the database.
func (d *SqliteCatalog) GetArtist(ctx context.Context, id string) (*catalog.Artist, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, uri, name, cover_art_id FROM artists WHERE id = ?`, id)

	a := &catalog.Artist{}
	var cover sql.NullString
	err := row.Scan(&a.ID, &a.URI, &a.Name, &cover)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	a.CoverArtID = cover.String
	return a, nil
}

// ListAlbumArtists lists the artists credited on an album.
func (d *SqliteCatalog) ListAlbumArtists(ctx context.Context, albumID string) ([]*catalog.Artist, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT a.id, a.uri, a.name, a.cover_art_id
		FROM album_artists aa
		JOIN artists a ON aa.artist_id = a.id
		WHERE aa.album_id = ?
		ORDER BY a.name
	`, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artists := []*catalog.Artist{}
	for rows.Next() {
		a := &catalog.Artist{}
		var cover sql.NullString
		if err := rows.Scan(&a.ID, &a.URI, &a.Name, &cover); err != nil {
			return nil, err
		}
		a.CoverArtID = cover.String
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// GetCoverArt gets a cover art entry with its payload.
func (d *SqliteCatalog) GetCoverArt(ctx context.Context, id string) (*catalog.CoverArt, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, uri, data FROM cover_art WHERE id = ?`, id)

	c := &catalog.CoverArt{}
	err := row.Scan(&c.ID, &c.URI, &c.Data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Counts summarizes the persisted catalog.
func (d *SqliteCatalog) Counts(ctx context.Context) (catalog.CatalogCounts, error) {
	var counts catalog.CatalogCounts
	err := d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM folders),
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM albums),
			(SELECT COUNT(*) FROM artists),
			(SELECT COUNT(*) FROM cover_art)
	`).Scan(&counts.Folders, &counts.Songs, &counts.Albums, &counts.Artists, &counts.CoverArt)
	return counts, err
}
