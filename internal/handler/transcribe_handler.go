package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/service"
)

// TranscribeHandler 负责语音转文字的 HTTP 请求。
type TranscribeHandler struct {
	transcribeService service.TranscribeService
}

// NewTranscribeHandler 创建一个新的 TranscribeHandler。
func NewTranscribeHandler(transcribeService service.TranscribeService) *TranscribeHandler {
	return &TranscribeHandler{transcribeService: transcribeService}
}

// Transcribe 处理 POST /api/transcribe。
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
	var req struct {
		AudioData string `json:"audio_data"`
		Language  string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求体格式错误: "+err.Error())
		return
	}

	text, err := h.transcribeService.Transcribe(c.Request.Context(), req.AudioData, req.Language)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
}
