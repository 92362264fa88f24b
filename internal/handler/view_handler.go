package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/trafficcams/internal/models"
	"github.com/jengzang/trafficcams/internal/service"
	"github.com/jengzang/trafficcams/pkg/response"
)

// ViewHandler handles HTTP requests that change the view state
type ViewHandler struct {
	service *service.GalleryService
}

// NewViewHandler creates a new view handler
func NewViewHandler(service *service.GalleryService) *ViewHandler {
	return &ViewHandler{service: service}
}

type queryRequest struct {
	Query string `json:"query"`
}

type regionsRequest struct {
	Regions []string `json:"regions"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type radiusRequest struct {
	RadiusMi *float64 `json:"radiusMi"`
}

// nearRequest carries a position acquired by the browser. An empty body
// turns proximity mode off.
type nearRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"` // set when the browser could not locate
}

type visibleRequest struct {
	IDs []string `json:"ids"`
}

// GetView handles GET /api/v1/view
func (h *ViewHandler) GetView(c *gin.Context) {
	response.Success(c, h.service.State())
}

// SetQuery handles PUT /api/v1/view/query
func (h *ViewHandler) SetQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	response.Success(c, h.service.SetQuery(req.Query))
}

// SetRegions handles PUT /api/v1/view/regions
func (h *ViewHandler) SetRegions(c *gin.Context) {
	var req regionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	response.Success(c, h.service.SetRegions(req.Regions))
}

// SetFavouritesOnly handles PUT /api/v1/view/favourites-only
func (h *ViewHandler) SetFavouritesOnly(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	response.Success(c, h.service.SetFavouritesOnly(*req.Enabled))
}

// SetRadius handles PUT /api/v1/view/radius
func (h *ViewHandler) SetRadius(c *gin.Context) {
	var req radiusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	state, err := h.service.SetRadius(req.RadiusMi)
	if err != nil {
		response.BadRequest(c, "Invalid radius", err)
		return
	}
	response.Success(c, state)
}

// Near handles POST /api/v1/view/near
func (h *ViewHandler) Near(c *gin.Context) {
	var req nearRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}

	if req.Error != "" {
		denied := service.LocatorFunc(func(_ context.Context, _ service.LocateOptions) (models.Location, error) {
			return models.Location{}, errors.New(req.Error)
		})
		state, err := h.service.EnableProximity(c.Request.Context(), denied)
		locateFailed(c, state, err)
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		response.Success(c, h.service.DisableProximity())
		return
	}

	locator := service.StaticLocator{Location: models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}}
	state, err := h.service.EnableProximity(c.Request.Context(), locator)
	if err != nil {
		locateFailed(c, state, err)
		return
	}
	response.Success(c, state)
}

func locateFailed(c *gin.Context, state models.ViewState, err error) {
	if errors.Is(err, service.ErrLocationUnavailable) {
		c.JSON(http.StatusUnprocessableEntity, response.Response{
			Code:    http.StatusUnprocessableEntity,
			Message: models.StatusLocationDenied,
			Data:    state,
			Error:   err.Error(),
		})
		return
	}
	response.InternalError(c, "Failed to locate", err)
}

// SetVisible handles PUT /api/v1/refresh/visible
func (h *ViewHandler) SetVisible(c *gin.Context) {
	var req visibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	response.Success(c, gin.H{"visible": h.service.SetVisible(req.IDs)})
}
