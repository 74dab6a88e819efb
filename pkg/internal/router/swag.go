package router

import (
	"net"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/filevault/docs"
	"github.com/yeisme/filevault/pkg/configs"
)

// RegisterSwaggerRoute 注册接口文档，仅 debug 模式开启.
// 配置了 share.base_url 时文档中的地址使用该外部地址.
func RegisterSwaggerRoute(e *gin.Engine, cfg *configs.AppConfig) {
	if !cfg.Server.Debug {
		return
	}

	docs.SwaggerInfo.Version = configs.AppVersion
	docs.SwaggerInfo.Host = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	docs.SwaggerInfo.Schemes = []string{"http"}

	if u, err := url.Parse(cfg.Share.BaseURL); err == nil && u.Host != "" {
		docs.SwaggerInfo.Host = u.Host
		docs.SwaggerInfo.Schemes = []string{u.Scheme}
	}

	e.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.DocExpansion("none"),
	))
}
