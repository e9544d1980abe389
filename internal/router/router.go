package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/jalonsogo/figma-conveyor/config"
	"github.com/jalonsogo/figma-conveyor/internal/handler"
	"github.com/jalonsogo/figma-conveyor/internal/service/orchestrator"
)

func Setup(
	cfg *config.Config,
	docHandler *handler.DocumentHandler,
	sessionHandler *handler.SessionHandler,
	orch *orchestrator.Orchestrator,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	// 响应压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api")
	{
		docs := api.Group("/documents")
		{
			docs.POST("", docHandler.Create)
			docs.GET("", docHandler.List)
			docs.GET("/:key", docHandler.Get)
			docs.GET("/:key/versions", docHandler.GetVersions)
			docs.GET("/:key/versions/:version", docHandler.GetVersion)
			docs.GET("/:key/runs", sessionHandler.DocumentRuns)
			docs.DELETE("/:key", docHandler.Delete)
			docs.PUT("/:key/selection", docHandler.SetSelection)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Create)
			sessions.POST("/:id/messages", sessionHandler.Message)
			sessions.POST("/:id/tables", sessionHandler.UploadTable)
			sessions.GET("/:id/runs", sessionHandler.Runs)
			sessions.DELETE("/:id", sessionHandler.Close)
		}

		// 运行调度状态
		api.GET("/runs/status", func(c *gin.Context) {
			if orch == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "orchestrator not initialized"})
				return
			}
			c.JSON(http.StatusOK, orch.GetQueueStatus())
		})
	}

	return r
}
