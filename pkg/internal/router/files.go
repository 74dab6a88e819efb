package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件操作相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	filesRoutes := g.Group("/files")
	{
		filesRoutes.POST("", h.Upload)          // 上传单个文件
		filesRoutes.POST("/bulk", h.BulkUpload) // 批量上传
		filesRoutes.GET("", h.ListFiles)        // 根目录或 ?folder= 下的文件

		singleGroup := filesRoutes.Group("/:id")
		{
			singleGroup.GET("", h.GetFile)
			singleGroup.DELETE("", h.DeleteFile)
			singleGroup.GET("/download", h.Download)
			singleGroup.GET("/preview", h.Preview)
			singleGroup.POST("/move", h.MoveFile)

			// 分享链接
			singleGroup.POST("/share", h.ShareFile)
			singleGroup.GET("/shares", h.ListShares)
		}
	}
}

// RegisterTrashRoutes 注册回收站路由. 恢复与永久删除只作用于已删除的文件.
func RegisterTrashRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	trash := g.Group("/trash")

	trash.GET("", h.ListTrash)
	trash.DELETE("", h.EmptyTrash)
	trash.POST("/:id/restore", h.RestoreFile)
	trash.DELETE("/:id", h.PurgeFile)
}
