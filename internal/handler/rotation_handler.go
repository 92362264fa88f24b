package handler

import (
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/trafficcams/internal/rotation"
	"github.com/jengzang/trafficcams/internal/service"
	"github.com/jengzang/trafficcams/pkg/response"
)

// KeepaliveInterval is how often an idle rotation stream sends a comment
var KeepaliveInterval = 30 * time.Second

// RotationHandler handles HTTP requests for the rolling view
type RotationHandler struct {
	service *service.GalleryService
}

// NewRotationHandler creates a new rotation handler
func NewRotationHandler(service *service.GalleryService) *RotationHandler {
	return &RotationHandler{service: service}
}

type rotationStatus struct {
	State     string          `json:"state"`
	Index     int             `json:"index"`
	Remaining int             `json:"remaining"`
	Frame     *rotation.Frame `json:"frame,omitempty"`
}

func (h *RotationHandler) status() rotationStatus {
	cycler := h.service.Rotation()
	st := rotationStatus{
		State:     cycler.State().String(),
		Index:     cycler.Index(),
		Remaining: cycler.Remaining(),
	}
	if frame, ok := cycler.LastFrame(); ok {
		st.Frame = &frame
	}
	return st
}

// GetRotation handles GET /api/v1/rotation
func (h *RotationHandler) GetRotation(c *gin.Context) {
	response.Success(c, h.status())
}

// StartRotation handles POST /api/v1/rotation/start
func (h *RotationHandler) StartRotation(c *gin.Context) {
	h.service.StartRotation()
	response.Success(c, h.status())
}

// StopRotation handles POST /api/v1/rotation/stop
func (h *RotationHandler) StopRotation(c *gin.Context) {
	h.service.StopRotation()
	response.Success(c, h.status())
}

// Stream handles GET /api/v1/rotation/stream
//
// Server-sent events: "connected" once, then "frame" and "countdown" events
// as the cycler publishes them.
func (h *RotationHandler) Stream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	id, events, cancel := h.service.Rotation().Subscribe()
	defer cancel()

	c.SSEvent("connected", gin.H{"client_id": id, "rotation": h.status()})
	c.Writer.Flush()

	keepalive := time.NewTicker(KeepaliveInterval)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			log.Printf("rotation stream %s disconnected", id)
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-keepalive.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return false
			}
			return true
		}
	})
}
