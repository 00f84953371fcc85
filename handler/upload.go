package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/service"
	"github.com/tonylow1993/idphoto/utils"
)

type UploadHandler struct {
	cfg      *config.Config
	sessions *service.SessionService
	decoder  *service.Decoder
}

func NewUploadHandler(cfg *config.Config, sessions *service.SessionService, decoder *service.Decoder) *UploadHandler {
	return &UploadHandler{
		cfg:      cfg,
		sessions: sessions,
		decoder:  decoder,
	}
}

// Upload 处理图片上传并创建会话
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型，实际内容在解码时再次检查
	contentType := file.Header.Get("Content-Type")
	if !h.decoder.IsAllowed(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG/WEBP",
		})
		return
	}

	// 保存文件，由定时任务清理
	filename := utils.GenerateID() + filepath.Ext(file.Filename)
	savePath := filepath.Join(h.cfg.Upload.UploadDir, filename)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		utils.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}

	data, err := os.ReadFile(savePath)
	if err != nil {
		abortWithError(c, "读取文件失败", err)
		return
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", filename),
		zap.Int64("size", file.Size))

	session, err := h.sessions.Create(c.Request.Context(), file.Filename, data)
	if err != nil {
		abortWithError(c, "图片处理失败", err)
		return
	}

	message := "上传成功"
	if session.Foreground == model.ForegroundPending {
		message = "上传成功，请提交前景掩码或抠图"
	}
	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: message,
		Data:    session,
	})
}
