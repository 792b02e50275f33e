package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/service"
)

// UploadHandler 负责多媒体文件上传相关的 HTTP 请求。
type UploadHandler struct {
	uploadService     service.UploadService
	transcribeService service.TranscribeService
}

// NewUploadHandler 创建一个新的 UploadHandler。
func NewUploadHandler(uploadService service.UploadService, transcribeService service.TranscribeService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, transcribeService: transcribeService}
}

// Image 处理 POST /api/upload（图片上传）。
func (h *UploadHandler) Image(c *gin.Context) {
	h.process(c, service.UploadKindImage)
}

// Audio 处理 POST /api/upload/audio。
func (h *UploadHandler) Audio(c *gin.Context) {
	h.process(c, service.UploadKindAudio)
}

// Video 处理 POST /api/upload/video。
func (h *UploadHandler) Video(c *gin.Context) {
	h.process(c, service.UploadKindVideo)
}

func (h *UploadHandler) process(c *gin.Context, kind string) {
	header, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "未找到上传文件")
		return
	}

	result, err := h.uploadService.Process(c.Request.Context(), kind, header)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data_uri":  result.DataURI,
		"file_name": result.FileName,
		"file_size": result.FileSize,
		"mime_type": result.MimeType,
	})
}

// Record 处理 POST /api/upload/record：浏览器录音的 JSON 上传。
func (h *UploadHandler) Record(c *gin.Context) {
	var req service.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求体格式错误: "+err.Error())
		return
	}

	result, err := h.transcribeService.ProcessRecording(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	body := gin.H{"success": true, "data_uri": result.DataURI}
	if result.Transcript != "" {
		body["transcript"] = result.Transcript
	}
	c.JSON(http.StatusOK, body)
}
