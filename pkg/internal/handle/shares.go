package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/types"
)

// ShareFile 为文件创建公开分享链接.
//
//	@Summary		创建分享链接
//	@Description	ttl_minutes 省略时使用默认有效期，0 表示立即过期；max_downloads 省略表示不限次数
//	@Tags			分享
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"文件 ID"
//	@Param			body	body		types.ShareRequest	false	"分享参数"
//	@Success		201		{object}	types.ShareResponse	"分享地址"
//	@Failure		400		{object}	errs.Body			"参数错误"
//	@Failure		404		{object}	errs.Body			"文件不存在"
//	@Router			/api/v1/files/{id}/share [post]
func (h *Handlers) ShareFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.ShareRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	link, err := h.svc.Shares.Create(c.Request.Context(), user, c.Param("id"), req.TTLMinutes, req.MaxDownloads)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.ShareResponse{
		URL:          h.svc.Shares.PublicURL(requestBase(c), link.Token),
		ID:           link.ID,
		ExpiresAt:    link.ExpiresAt,
		MaxDownloads: link.MaxDownloads,
	})
}

// ListShares 列出文件的分享链接及状态.
//
//	@Summary		分享链接列表
//	@Tags			分享
//	@Produce		json
//	@Param			id	path		string				true	"文件 ID"
//	@Success		200	{array}		types.LinkResponse	"链接列表"
//	@Failure		404	{object}	errs.Body			"文件不存在"
//	@Router			/api/v1/files/{id}/shares [get]
func (h *Handlers) ListShares(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	links, err := h.svc.Shares.ListForFile(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]types.LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, types.LinkResponse{
			ID:            l.ID,
			CreatedAt:     l.CreatedAt,
			ExpiresAt:     l.ExpiresAt,
			MaxDownloads:  l.MaxDownloads,
			DownloadCount: l.DownloadCount,
			State:         string(l.State),
		})
	}

	c.JSON(http.StatusOK, out)
}

// PublicDownload 通过分享令牌下载文件，无需认证. 每次成功解析占用一次下载次数.
//
//	@Summary		公开下载
//	@Tags			分享
//	@Produce		octet-stream
//	@Param			token	path		string		true	"分享令牌"
//	@Success		200		{file}		binary		"文件内容"
//	@Failure		404		{object}	errs.Body	"链接不存在"
//	@Failure		410		{object}	errs.Body	"链接已过期或次数用尽"
//	@Router			/p/{token}/ [get]
func (h *Handlers) PublicDownload(c *gin.Context) {
	ctx := c.Request.Context()

	f, err := h.svc.Shares.Resolve(ctx, c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	_, rc, err := h.svc.Files.Open(ctx, f.Owner, f.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, f.Size, contentType(f.MimeType), rc, map[string]string{
		"Content-Disposition": attachment(f.Name),
		"Cache-Control":       "no-store",
	})
}

// requestBase 由请求推断对外地址，share.base_url 未配置时使用.
func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if p := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); p != "" {
		scheme = strings.ToLower(strings.Split(p, ",")[0])
	}

	host := c.Request.Host
	if h := strings.TrimSpace(c.GetHeader("X-Forwarded-Host")); h != "" {
		host = h
	}

	return scheme + "://" + host
}
