package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/trafficcams/internal/service"
	"github.com/jengzang/trafficcams/internal/snapshot"
	"github.com/jengzang/trafficcams/pkg/response"
)

// GalleryHandler handles HTTP requests for cameras and the gallery
type GalleryHandler struct {
	service *service.GalleryService
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(service *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{service: service}
}

// cameraError maps service errors to a response
func cameraError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrCameraNotFound) {
		response.NotFound(c, "Camera not found", err)
		return
	}
	response.InternalError(c, "Failed to get camera", err)
}

// GetStatus handles GET /api/v1/status
func (h *GalleryHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.service.Status())
}

// ListCameras handles GET /api/v1/cameras
//
// Optional query parameters override the stored view for this response
// only: q, region (repeatable), favourites=true|false.
func (h *GalleryHandler) ListCameras(c *gin.Context) {
	state := h.service.State()
	if q, ok := c.GetQuery("q"); ok {
		state.Query = strings.TrimSpace(q)
	}
	if regions, ok := c.GetQueryArray("region"); ok {
		state.ActiveRegions = service.NormalizeRegions(regions)
	}
	if fav, ok := c.GetQuery("favourites"); ok {
		enabled, err := strconv.ParseBool(fav)
		if err != nil {
			response.BadRequest(c, "Invalid favourites flag", err)
			return
		}
		state.FavouritesOnly = enabled
	}

	response.Success(c, h.service.ListFor(state))
}

// GetCamera handles GET /api/v1/cameras/:id
func (h *GalleryHandler) GetCamera(c *gin.Context) {
	detail, err := h.service.Detail(c.Param("id"))
	if err != nil {
		cameraError(c, err)
		return
	}
	response.Success(c, detail)
}

// GetImage handles GET /api/v1/cameras/:id/image
func (h *GalleryHandler) GetImage(c *gin.Context) {
	img, err := h.service.Image(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCameraNotFound) {
			cameraError(c, err)
			return
		}
		response.Error(c, http.StatusBadGateway, "Failed to fetch camera image", err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Last-Modified", img.FetchedAt.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// GetSnapshot handles GET /api/v1/cameras/:id/snapshot
//
// The current frame is sent as a file download. When it cannot be fetched
// the client is redirected to the camera's direct URL instead.
func (h *GalleryHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		var fe *snapshot.FetchError
		if errors.As(err, &fe) && fe.DirectURL != "" {
			c.Redirect(http.StatusFound, fe.DirectURL)
			return
		}
		cameraError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, snap.ContentType, snap.Data)
}

// ListRegions handles GET /api/v1/regions
func (h *GalleryHandler) ListRegions(c *gin.Context) {
	response.Success(c, h.service.Regions())
}

// GetMarkers handles GET /api/v1/map/markers
func (h *GalleryHandler) GetMarkers(c *gin.Context) {
	response.Success(c, h.service.Markers())
}
