package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/types"
)

// CountByType 各 MIME 类型的文件数.
//
//	@Summary		按类型计数
//	@Tags			统计
//	@Produce		json
//	@Success		200	{array}	service.TypeCount	"类型与数量"
//	@Router			/api/v1/stats/types [get]
func (h *Handlers) CountByType(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	out, err := h.svc.Stats.CountByType(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// TotalStorage 未删除文件的总大小.
//
//	@Summary		总占用
//	@Tags			统计
//	@Produce		json
//	@Success		200	{object}	service.TotalStorage	"总字节数"
//	@Router			/api/v1/stats/storage [get]
func (h *Handlers) TotalStorage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	out, err := h.svc.Stats.TotalStorage(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// StorageByType 各 MIME 类型的占用.
//
//	@Summary		按类型占用
//	@Tags			统计
//	@Produce		json
//	@Success		200	{array}	service.TypeSize	"类型与字节数"
//	@Router			/api/v1/stats/storage/types [get]
func (h *Handlers) StorageByType(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	out, err := h.svc.Stats.StorageByType(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Quota 当前用量与配额.
//
//	@Summary		配额
//	@Tags			统计
//	@Produce		json
//	@Success		200	{object}	types.QuotaResponse	"用量"
//	@Router			/api/v1/quota [get]
func (h *Handlers) Quota(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	used, limit, err := h.svc.Stats.Usage(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewQuotaResponse(used, limit))
}
