package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/types"
)

// CreateFolder 创建目录.
//
//	@Summary		创建目录
//	@Description	同一父目录下名称唯一，层级受 folder.max_depth 限制
//	@Tags			目录
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.CreateFolderRequest	true	"目录名与父目录"
//	@Success		201		{object}	types.FolderResponse		"创建的目录"
//	@Failure		400		{object}	errs.Body					"参数错误"
//	@Router			/api/v1/folders [post]
func (h *Handlers) CreateFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.CreateFolderRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	f, err := h.svc.Folders.Create(c.Request.Context(), user, req.Name, req.Parent)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewFolderResponse(f))
}

// RootContents 根目录下的直接子目录与文件.
//
//	@Summary		根目录内容
//	@Tags			目录
//	@Produce		json
//	@Success		200	{object}	types.FolderContentsResponse	"目录内容"
//	@Router			/api/v1/folders/root/content [get]
func (h *Handlers) RootContents(c *gin.Context) {
	h.contents(c, nil)
}

// FolderContents 指定目录下的直接子目录与文件.
//
//	@Summary		目录内容
//	@Tags			目录
//	@Produce		json
//	@Param			id	path		string							true	"目录 ID"
//	@Success		200	{object}	types.FolderContentsResponse	"目录内容"
//	@Failure		404	{object}	errs.Body						"不存在"
//	@Router			/api/v1/folders/{id}/content [get]
func (h *Handlers) FolderContents(c *gin.Context) {
	id := c.Param("id")
	h.contents(c, &id)
}

func (h *Handlers) contents(c *gin.Context, id *string) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fc, err := h.svc.Folders.Contents(c.Request.Context(), user, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := types.FolderContentsResponse{
		Folders: types.NewFolderResponses(fc.Folders),
		Files:   types.NewFileResponses(fc.Files),
	}

	if fc.Folder != nil {
		fr := types.NewFolderResponse(fc.Folder)
		resp.Folder = &fr
	}

	c.JSON(http.StatusOK, resp)
}

// MoveFolder 修改目录的父目录.
//
//	@Summary		移动目录
//	@Description	不能移动到自身或其子目录下
//	@Tags			目录
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"目录 ID"
//	@Param			body	body		types.MoveRequest		true	"新的父目录，null 表示根目录"
//	@Success		200		{object}	types.FolderResponse	"移动后的目录"
//	@Failure		400		{object}	errs.Body				"参数错误或形成环"
//	@Failure		404		{object}	errs.Body				"不存在"
//	@Router			/api/v1/folders/{id}/move [post]
func (h *Handlers) MoveFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.MoveRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	f, err := h.svc.Folders.Move(c.Request.Context(), user, c.Param("id"), req.Folder)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewFolderResponse(f))
}

// DeleteFolder 删除目录. 目录内的文件移入回收站，子目录一并删除，子目录中的文件回到根目录.
//
//	@Summary		删除目录
//	@Tags			目录
//	@Param			id	path	string	true	"目录 ID"
//	@Success		204	"已删除"
//	@Failure		404	{object}	errs.Body	"不存在"
//	@Router			/api/v1/folders/{id} [delete]
func (h *Handlers) DeleteFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Folders.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
