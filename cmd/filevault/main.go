// Package main 是 filevault 的命令行入口.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yeisme/filevault/pkg/cmd"
)

//	@title			FileVault API
//	@version		1.0
//	@description	自托管文件存储服务：目录、预览图、回收站与公开分享链接.
//	@description	身份由前置网关通过请求头注入，服务本身不处理登录.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	ProxyUser
//	@in							header
//	@name						X-Auth-Request-Email

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
