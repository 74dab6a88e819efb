package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// ListTrash 列出回收站文件，最近删除的在前.
//
//	@Summary		回收站列表
//	@Tags			回收站
//	@Produce		json
//	@Success		200	{array}	types.TrashItem	"已删除文件"
//	@Router			/api/v1/trash [get]
func (h *Handlers) ListTrash(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	files, err := h.svc.Trash.List(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewTrashItems(files))
}

// RestoreFile 在保留期内恢复文件. 原目录已删除时恢复到根目录.
//
//	@Summary		恢复文件
//	@Tags			回收站
//	@Produce		json
//	@Param			id	path		string				true	"文件 ID"
//	@Success		200	{object}	types.FileResponse	"恢复后的文件"
//	@Failure		403	{object}	errs.Body			"超出恢复期限或配额"
//	@Failure		404	{object}	errs.Body			"不在回收站中"
//	@Router			/api/v1/trash/{id}/restore [post]
func (h *Handlers) RestoreFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	f, err := h.svc.Trash.Restore(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewFileResponse(f))
}

// PurgeFile 永久删除回收站中的文件，同时删除内容与预览.
//
//	@Summary		永久删除
//	@Tags			回收站
//	@Param			id	path	string	true	"文件 ID"
//	@Success		204	"已删除"
//	@Failure		404	{object}	errs.Body	"不在回收站中"
//	@Router			/api/v1/trash/{id} [delete]
func (h *Handlers) PurgeFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Trash.Purge(c.Request.Context(), user, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// EmptyTrash 清空回收站. 部分文件失败时仍返回 200，error 字段给出失败原因.
//
//	@Summary		清空回收站
//	@Tags			回收站
//	@Produce		json
//	@Success		200	{object}	types.EmptyTrashResponse	"删除数量"
//	@Router			/api/v1/trash [delete]
func (h *Handlers) EmptyTrash(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.svc.Trash.Empty(c.Request.Context(), user)

	var purgeErr *service.PurgeError
	if err != nil && !errors.As(err, &purgeErr) {
		h.writeError(c, err)
		return
	}

	resp := types.EmptyTrashResponse{Purged: n}
	if err != nil {
		h.logger.Warn().Err(err).Str("user", user).Msg("empty trash partially failed")
		resp.Error = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}
