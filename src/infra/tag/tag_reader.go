package tag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	goflac "github.com/go-flac/go-flac"

	"shellac/src/features/scanning"
)

// Extractor reads tags and audio properties with the dhowden/tag
// library, with a FLAC STREAMINFO parser for exact durations. A file
// whose container cannot be parsed still yields metadata derived from
// its filename; only an unreadable file is an error.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() scanning.Extractor {
	return &Extractor{}
}

// Extract reads metadata from a music file.
func (e *Extractor) Extract(ctx context.Context, filePath string) (*scanning.Metadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	meta := &scanning.Metadata{
		Suffix: strings.TrimPrefix(ext, "."),
		Size:   info.Size(),
	}

	if tags, err := tag.ReadFrom(file); err == nil {
		meta.Title = strings.TrimSpace(tags.Title())
		meta.Artist = strings.TrimSpace(tags.Artist())
		meta.AlbumArtist = strings.TrimSpace(tags.AlbumArtist())
		meta.Album = strings.TrimSpace(tags.Album())
		meta.Genre = strings.TrimSpace(tags.Genre())
		meta.Year = tags.Year()
		meta.TrackNumber, _ = tags.Track()
		meta.DiscNumber, _ = tags.Disc()
		if pic := tags.Picture(); pic != nil && len(pic.Data) > 0 {
			meta.Picture = pic.Data
		}
	}

	if meta.Title == "" {
		artist, title, track := fromFilename(filePath)
		meta.Title = title
		if meta.Artist == "" {
			meta.Artist = artist
		}
		if meta.TrackNumber == 0 {
			meta.TrackNumber = track
		}
	}

	e.extractAudioProperties(filePath, meta)
	return meta, nil
}

// fromFilename derives metadata from an "Artist - Title" or
// "NN - Title" filename. Anything else becomes the title as-is.
func fromFilename(filePath string) (artist, title string, track int) {
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	left, right, ok := strings.Cut(base, " - ")
	if !ok {
		return "", strings.TrimSpace(base), 0
	}
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if n, err := strconv.Atoi(left); err == nil {
		return "", right, n
	}
	return left, right, 0
}

// Nominal bitrates used to estimate duration when the container does
// not carry exact audio properties.
var nominalBitrates = map[string]int{
	"mp3": 192,
	"ogg": 160,
	"oga": 160,
	"m4a": 256,
	"mp4": 256,
	"wav": 1411,
}

// extractAudioProperties fills duration and bitrate. FLAC carries both
// exactly in its STREAMINFO block; other formats get a file-size
// estimate against a nominal bitrate.
func (e *Extractor) extractAudioProperties(filePath string, meta *scanning.Metadata) {
	if meta.Suffix == "flac" {
		if e.readFlacStreamInfo(filePath, meta) {
			return
		}
		// Unparseable FLAC, assume typical compression of CD audio.
		meta.BitRate = 1000
		meta.Duration = int(meta.Size * 8 / int64(meta.BitRate*1000))
		return
	}

	kbps, ok := nominalBitrates[meta.Suffix]
	if !ok {
		return
	}
	meta.BitRate = kbps
	meta.Duration = int(meta.Size * 8 / int64(kbps*1000))
}

// readFlacStreamInfo parses the STREAMINFO metadata block: sample rate
// is a 20-bit field at bit offset 80, total samples a 36-bit field at
// bit offset 108.
func (e *Extractor) readFlacStreamInfo(filePath string, meta *scanning.Metadata) bool {
	f, err := goflac.ParseFile(filePath)
	if err != nil {
		return false
	}
	for _, block := range f.Meta {
		if block.Type != goflac.StreamInfo || len(block.Data) < 18 {
			continue
		}
		d := block.Data
		sampleRate := int(d[10])<<12 | int(d[11])<<4 | int(d[12])>>4
		totalSamples := int64(d[13]&0x0F)<<32 |
			int64(d[14])<<24 | int64(d[15])<<16 | int64(d[16])<<8 | int64(d[17])
		if sampleRate == 0 || totalSamples == 0 {
			return false
		}
		meta.Duration = int(totalSamples / int64(sampleRate))
		if meta.Duration > 0 {
			meta.BitRate = int(meta.Size * 8 / int64(meta.Duration) / 1000)
		}
		return meta.Duration > 0
	}
	return false
}
