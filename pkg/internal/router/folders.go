package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterFoldersRoutes 注册目录相关路由. root 为保留段，表示根目录.
func RegisterFoldersRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	foldersRoutes := g.Group("/folders")
	{
		foldersRoutes.POST("", h.CreateFolder)
		foldersRoutes.GET("/root/content", h.RootContents)
		foldersRoutes.GET("/:id/content", h.FolderContents)
		foldersRoutes.POST("/:id/move", h.MoveFolder)
		foldersRoutes.DELETE("/:id", h.DeleteFolder)
	}
}
