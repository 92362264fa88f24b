package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/trafficcams/internal/service"
	"github.com/jengzang/trafficcams/pkg/response"
)

// FavouritesHandler handles HTTP requests for favourite cameras
type FavouritesHandler struct {
	service *service.GalleryService
}

// NewFavouritesHandler creates a new favourites handler
func NewFavouritesHandler(service *service.GalleryService) *FavouritesHandler {
	return &FavouritesHandler{service: service}
}

// ListFavourites handles GET /api/v1/favourites
func (h *FavouritesHandler) ListFavourites(c *gin.Context) {
	cams := h.service.Favourites()
	response.Success(c, gin.H{
		"ids":   h.service.FavouriteIDs(),
		"data":  cams,
		"count": len(cams),
	})
}

// ToggleFavourite handles POST /api/v1/favourites/:id/toggle
func (h *FavouritesHandler) ToggleFavourite(c *gin.Context) {
	id := c.Param("id")
	isFav, err := h.service.ToggleFavourite(id)
	if err != nil {
		if errors.Is(err, service.ErrCameraNotFound) {
			response.NotFound(c, "Camera not found", err)
			return
		}
		response.InternalError(c, "Failed to toggle favourite", err)
		return
	}
	response.Success(c, gin.H{"id": id, "favourite": isFav})
}
