package api

import (
	"context"
	"embed"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/trafficcams/internal/config"
	"github.com/jengzang/trafficcams/internal/handler"
	"github.com/jengzang/trafficcams/internal/metrics"
	"github.com/jengzang/trafficcams/internal/middleware"
	"github.com/jengzang/trafficcams/internal/service"
)

//go:embed web/index.html
var webFS embed.FS

// SetupRouter 设置路由
func SetupRouter(ctx context.Context, cfg *config.Config, svc *service.GalleryService, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Traffic camera gallery is running",
		})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.GET("/", func(c *gin.Context) {
		page, err := webFS.ReadFile("web/index.html")
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	gallery := handler.NewGalleryHandler(svc)
	views := handler.NewViewHandler(svc)
	favourites := handler.NewFavouritesHandler(svc)
	rotation := handler.NewRotationHandler(svc)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	limited := middleware.RateLimit(limiter)
	go limiter.RunCleanup(ctx.Done())

	// API 路由组
	api := r.Group(cfg.BasePath)
	{
		api.GET("/status", gallery.GetStatus)
		api.GET("/regions", gallery.ListRegions)

		cameras := api.Group("/cameras")
		{
			cameras.GET("", gallery.ListCameras)
			cameras.GET("/:id", gallery.GetCamera)
			cameras.GET("/:id/image", limited, gallery.GetImage)
			cameras.GET("/:id/snapshot", limited, gallery.GetSnapshot)
		}

		view := api.Group("/view")
		{
			view.GET("", views.GetView)
			view.PUT("/query", views.SetQuery)
			view.PUT("/regions", views.SetRegions)
			view.PUT("/favourites-only", views.SetFavouritesOnly)
			view.PUT("/radius", views.SetRadius)
			view.POST("/near", views.Near)
		}

		favs := api.Group("/favourites")
		{
			favs.GET("", favourites.ListFavourites)
			favs.POST("/:id/toggle", favourites.ToggleFavourite)
		}

		api.GET("/map/markers", gallery.GetMarkers)

		rot := api.Group("/rotation")
		{
			rot.GET("", rotation.GetRotation)
			rot.POST("/start", rotation.StartRotation)
			rot.POST("/stop", rotation.StopRotation)
			rot.GET("/stream", rotation.Stream)
		}

		api.PUT("/refresh/visible", views.SetVisible)
	}

	return r
}
