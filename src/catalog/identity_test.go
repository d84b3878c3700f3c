package catalog

import (
	"strings"
	"testing"
)

func TestIDFromURIIsDeterministic(t *testing.T) {
	a := IDFromURI("song:/music/richard bona/tiki/01 ba senge.ogg")
	b := IDFromURI("song:/music/richard bona/tiki/01 ba senge.ogg")
	if a != b {
		t.Fatalf("same URI produced different ids: %s vs %s", a, b)
	}
	if len(a) != 36 {
		t.Errorf("expected UUID-formatted id, got %q", a)
	}
}

func TestIDFromURIChangesOnRename(t *testing.T) {
	before := IDFromURI(SongURI("/music/Old Name.ogg"))
	after := IDFromURI(SongURI("/music/New Name.ogg"))
	if before == after {
		t.Fatal("renamed file kept its identifier")
	}
}

func TestCanonicalPathNormalizesFilesystemQuirks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing slash", "/music/rock/", "/music/rock"},
		{"case folding", "/Music/Rock", "/music/rock"},
		{"redundant segments", "/music//rock/./x/..", "/music/rock"},
		{"root", "/", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalPath(tt.in); got != tt.want {
				t.Errorf("CanonicalPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPathURIsShareNormalization(t *testing.T) {
	a := SongURI("/Music/Album/Track.OGG")
	b := SongURI("/music/album/track.ogg/")
	if a != b {
		t.Errorf("case/slash variants produced different URIs: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "song:") {
		t.Errorf("song URI missing scheme: %q", a)
	}
}

func TestArtistURICollapsesNamingVariants(t *testing.T) {
	if ArtistURI("The Beatles") != ArtistURI("Beatles, The") {
		t.Error("article rotation changed artist identity")
	}
	if ArtistURI("Beyoncé") != ArtistURI("Beyonce") {
		t.Error("transliteration changed artist identity")
	}
	if ArtistURI("The Beatles") == ArtistURI("The Beatless") {
		t.Error("distinct artists share a URI")
	}
}

func TestAlbumURIIsScopedByArtist(t *testing.T) {
	a := AlbumURI("Queen", "Greatest Hits")
	b := AlbumURI("ABBA", "Greatest Hits")
	if a == b {
		t.Error("albums with the same title under different artists share a URI")
	}
}

func TestCoverURIIsContentAddressed(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	if CoverURI(img) != CoverURI(append([]byte(nil), img...)) {
		t.Error("identical content produced different cover URIs")
	}
	other := []byte{0x89, 'P', 'N', 'G'}
	if CoverURI(img) == CoverURI(other) {
		t.Error("different content produced the same cover URI")
	}
}
