package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/service"
)

type SessionHandler struct {
	cfg      *config.Config
	sessions *service.SessionService
	composer *service.ComposeService
}

func NewSessionHandler(cfg *config.Config, sessions *service.SessionService, composer *service.ComposeService) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		sessions: sessions,
		composer: composer,
	}
}

// Get 查询会话信息
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, "未找到该会话", err)
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "查询成功",
		Data:    session,
	})
}

// Delete 删除会话
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, "删除会话失败", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetForeground 上传抠图（cutout）或灰度掩码（mask）作为前景
func (h *SessionHandler) SetForeground(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if data, ok, err := h.readFormFile(c, "cutout"); err != nil {
		abortWithError(c, "读取抠图失败", err)
		return
	} else if ok {
		session, err := h.sessions.SetCutout(ctx, id, data)
		h.respondSession(c, session, err)
		return
	}

	data, ok, err := h.readFormFile(c, "mask")
	if err != nil {
		abortWithError(c, "读取掩码失败", err)
		return
	}
	if !ok {
		abortWithError(c, "请上传 cutout 或 mask 文件", fmt.Errorf("%w: missing cutout or mask", service.ErrInvalidRequest))
		return
	}

	mode, err := h.thresholdMode(c)
	if err != nil {
		abortWithError(c, "阈值参数错误", err)
		return
	}

	session, err := h.sessions.SetMask(ctx, id, data, mode)
	h.respondSession(c, session, err)
}

// SetPolygons 提交多边形分割文档作为前景
func (h *SessionHandler) SetPolygons(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, "读取请求失败", fmt.Errorf("%w: %v", service.ErrInvalidRequest, err))
		return
	}

	session, err := h.sessions.SetPolygons(c.Request.Context(), c.Param("id"), body)
	h.respondSession(c, session, err)
}

// Compose 合成并以附件形式返回
func (h *SessionHandler) Compose(c *gin.Context) {
	var req model.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, "参数错误", fmt.Errorf("%w: %v", service.ErrInvalidRequest, err))
		return
	}

	export, err := h.composer.Compose(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, "合成失败", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Header("X-Image-Width", strconv.Itoa(export.Width))
	c.Header("X-Image-Height", strconv.Itoa(export.Height))
	c.Data(http.StatusOK, export.Format.MIMEType(), export.Data)
}

// Preview 返回 PNG 预览
func (h *SessionHandler) Preview(c *gin.Context) {
	var req model.ComposeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, "参数错误", fmt.Errorf("%w: %v", service.ErrInvalidRequest, err))
		return
	}

	export, err := h.composer.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, "预览失败", err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, export.Format.MIMEType(), export.Data)
}

func (h *SessionHandler) respondSession(c *gin.Context, session *model.Session, err error) {
	if err != nil {
		abortWithError(c, "前景设置失败", err)
		return
	}
	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "前景已更新",
		Data:    session,
	})
}

// readFormFile 读取 multipart 文件字段，字段不存在时 ok 为 false
func (h *SessionHandler) readFormFile(c *gin.Context, field string) ([]byte, bool, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err)
	}

	if file.Size > h.cfg.Upload.MaxSize {
		return nil, false, fmt.Errorf("%w: file exceeds %d bytes", service.ErrInvalidRequest, h.cfg.Upload.MaxSize)
	}

	f, err := file.Open()
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// thresholdMode 解析 mode 与 threshold 表单字段，均未提供时返回 nil 使用配置值
func (h *SessionHandler) thresholdMode(c *gin.Context) (*composite.ThresholdMode, error) {
	modeName, hasMode := c.GetPostForm("mode")
	thresholdText, hasThreshold := c.GetPostForm("threshold")
	if !hasMode && !hasThreshold {
		return nil, nil
	}

	threshold := h.cfg.Compose.Threshold
	if hasThreshold {
		t, err := strconv.Atoi(thresholdText)
		if err != nil {
			return nil, fmt.Errorf("%w: threshold %q", service.ErrInvalidRequest, thresholdText)
		}
		threshold = t
	}

	mode, err := composite.ParseThresholdMode(modeName, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrInvalidRequest, err)
	}
	return &mode, nil
}
