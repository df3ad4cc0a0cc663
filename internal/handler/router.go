package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/middleware"
)

type RouterDeps struct {
	Documents    *DocumentHandler
	Chat         *ChatHandler
	UploadWindow time.Duration
}

func RegisterRoutes(group *gin.RouterGroup, deps RouterDeps) {
	group.POST("/upload", middleware.UploadRateLimit(deps.UploadWindow), deps.Documents.Upload)
	group.GET("/documents", deps.Documents.List)
	group.DELETE("/documents/:id", deps.Documents.Delete)
	group.GET("/files/:key", deps.Documents.Download)

	group.POST("/chat", deps.Chat.Chat)
	group.POST("/chat/clear", deps.Chat.ClearSession)
}
