package library

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the library feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	library := app.Group("/library")
	library.Get("/", handler.GetCounts)
	library.Get("/folders", handler.GetRootFolders)
	library.Get("/folders/:id", handler.GetFolder)
	library.Get("/songs/:id", handler.GetSong)
	library.Get("/albums/:id", handler.GetAlbum)
	library.Get("/artists/:id", handler.GetArtist)
	library.Get("/covers/:id", handler.GetCoverArt)
}
