package library

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"shellac/src/catalog"
)

// Handler is the handler for the library feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the library feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type folderResponse struct {
	ID         string `json:"id"`
	ParentID   string `json:"parentId,omitempty"`
	Name       string `json:"name"`
	CoverArtID string `json:"coverArtId,omitempty"`
	Created    string `json:"created"`
}

type childResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	SongID string `json:"songId,omitempty"`
	IsDir  bool   `json:"isDir"`
}

type songResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ArtistID    string `json:"artistId,omitempty"`
	AlbumID     string `json:"albumId,omitempty"`
	CoverArtID  string `json:"coverArtId,omitempty"`
	ContentType string `json:"contentType"`
	Suffix      string `json:"suffix"`
	Size        int64  `json:"size"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	DiscNumber  int    `json:"discNumber,omitempty"`
	Duration    int    `json:"duration"`
	BitRate     int    `json:"bitRate"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	Created     string `json:"created"`
}

func toFolderResponse(f *catalog.Folder) folderResponse {
	return folderResponse{
		ID:         f.ID,
		ParentID:   f.ParentID,
		Name:       f.Name,
		CoverArtID: f.CoverArtID,
		Created:    f.Created.UTC().Format(time.RFC3339),
	}
}

func toSongResponse(s *catalog.Song) songResponse {
	resp := songResponse{
		ID:          s.ID,
		Title:       s.Title,
		ArtistID:    s.ArtistID,
		AlbumID:     s.AlbumID,
		CoverArtID:  s.CoverArtID,
		ContentType: s.ContentType,
		Suffix:      s.Suffix,
		Size:        s.Size,
		TrackNumber: s.TrackNumber,
		DiscNumber:  s.DiscNumber,
		Duration:    s.Duration,
		BitRate:     s.BitRate,
		Genre:       s.Genre,
		Created:     s.Created.UTC().Format(time.RFC3339),
	}
	if s.ReleaseDate != nil {
		resp.Year = s.ReleaseDate.Year()
	}
	return resp
}

func notFoundOr500(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": what + " not found"})
	}
	slog.Error("library lookup failed", "what", what, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// GetCounts is the handler for the catalog summary.
func (h *Handler) GetCounts(c *fiber.Ctx) error {
	counts, err := h.service.Counts(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{
		"folders":  counts.Folders,
		"songs":    counts.Songs,
		"albums":   counts.Albums,
		"artists":  counts.Artists,
		"coverArt": counts.CoverArt,
	})
}

// GetRootFolders is the handler for listing the library roots.
func (h *Handler) GetRootFolders(c *fiber.Ctx) error {
	folders, err := h.service.GetRootFolders(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	resp := make([]folderResponse, 0, len(folders))
	for _, f := range folders {
		resp = append(resp, toFolderResponse(f))
	}
	return c.JSON(fiber.Map{"folders": resp})
}

// GetFolder is the handler for browsing a folder and its children.
func (h *Handler) GetFolder(c *fiber.Ctx) error {
	id := c.Params("id")
	folder, err := h.service.GetFolder(c.Context(), id)
	if err != nil {
		return notFoundOr500(c, err, "folder")
	}
	children, err := h.service.GetFolderChildren(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	resp := make([]childResponse, 0, len(children))
	for _, child := range children {
		resp = append(resp, childResponse{
			ID:     child.ID,
			Name:   child.Name,
			SongID: child.SongID,
			IsDir:  child.SongID == "",
		})
	}
	return c.JSON(fiber.Map{
		"folder":   toFolderResponse(folder),
		"children": resp,
	})
}

// GetSong is the handler for a single song.
func (h *Handler) GetSong(c *fiber.Ctx) error {
	song, err := h.service.GetSong(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOr500(c, err, "song")
	}
	return c.JSON(toSongResponse(song))
}

// GetAlbum is the handler for a single album with its credited
// artists.
func (h *Handler) GetAlbum(c *fiber.Ctx) error {
	id := c.Params("id")
	album, err := h.service.GetAlbum(c.Context(), id)
	if err != nil {
		return notFoundOr500(c, err, "album")
	}
	artists, err := h.service.GetAlbumArtists(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	artistResp := make([]fiber.Map, 0, len(artists))
	for _, a := range artists {
		artistResp = append(artistResp, fiber.Map{"id": a.ID, "name": a.Name})
	}
	return c.JSON(fiber.Map{
		"id":         album.ID,
		"title":      album.Title,
		"coverArtId": album.CoverArtID,
		"artists":    artistResp,
	})
}

// GetArtist is the handler for a single artist.
func (h *Handler) GetArtist(c *fiber.Ctx) error {
	artist, err := h.service.GetArtist(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOr500(c, err, "artist")
	}
	return c.JSON(fiber.Map{
		"id":         artist.ID,
		"name":       artist.Name,
		"coverArtId": artist.CoverArtID,
	})
}

// GetCoverArt serves the stored artwork bytes.
func (h *Handler) GetCoverArt(c *fiber.Ctx) error {
	art, err := h.service.GetCoverArt(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOr500(c, err, "cover art")
	}
	c.Set("Content-Type", http.DetectContentType(art.Data))
	return c.Send(art.Data)
}
