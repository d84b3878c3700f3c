package tag

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Neil Young - Harvest Moon.mp3")
	writeFile(t, path, []byte("not an mp3 container at all"))

	e := NewExtractor()
	meta, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("corrupt container must not be an error: %v", err)
	}
	if meta.Artist != "Neil Young" {
		t.Errorf("artist = %q, want Neil Young", meta.Artist)
	}
	if meta.Title != "Harvest Moon" {
		t.Errorf("title = %q, want Harvest Moon", meta.Title)
	}
	if meta.Suffix != "mp3" {
		t.Errorf("suffix = %q, want mp3", meta.Suffix)
	}
	if meta.BitRate != 192 {
		t.Errorf("bitrate = %d, want the nominal mp3 rate", meta.BitRate)
	}
}

func TestExtractFilenameTrackNumber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "02 - Unknown Legend.mp3")
	writeFile(t, path, []byte("garbage"))

	e := NewExtractor()
	meta, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.TrackNumber != 2 {
		t.Errorf("track = %d, want 2", meta.TrackNumber)
	}
	if meta.Title != "Unknown Legend" {
		t.Errorf("title = %q, want Unknown Legend", meta.Title)
	}
	if meta.Artist != "" {
		t.Errorf("numeric prefix treated as artist: %q", meta.Artist)
	}
}

func TestExtractPlainFilenameBecomesTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bootleg.ogg")
	writeFile(t, path, []byte("x"))

	e := NewExtractor()
	meta, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "bootleg" {
		t.Errorf("title = %q, want bootleg", meta.Title)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.mp3")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestExtractReportsSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sized.mp3")
	writeFile(t, path, make([]byte, 1234))

	e := NewExtractor()
	meta, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Size != 1234 {
		t.Errorf("size = %d, want 1234", meta.Size)
	}
}
