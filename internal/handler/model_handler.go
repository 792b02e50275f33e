package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/service"
	"silicon-chat-go/pkg/llm"
)

// ModelHandler 负责模型列表与健康检查的 HTTP 请求。
type ModelHandler struct {
	registry      *model.Registry
	caller        *llm.Caller
	searchService service.SearchService
	uploadService service.UploadService
}

// NewModelHandler 创建一个新的 ModelHandler。
func NewModelHandler(registry *model.Registry, caller *llm.Caller, searchService service.SearchService, uploadService service.UploadService) *ModelHandler {
	return &ModelHandler{
		registry:      registry,
		caller:        caller,
		searchService: searchService,
		uploadService: uploadService,
	}
}

func (h *ModelHandler) capabilities() gin.H {
	return gin.H{
		"siliconflow": h.caller.Configured(model.ProviderSiliconFlow),
		"groq":        h.caller.Configured(model.ProviderGroq),
		"web_search":  h.searchService.Configured(),
	}
}

// Models 处理 GET /api/models。
func (h *ModelHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"models":       h.registry.List(),
		"capabilities": h.capabilities(),
	})
}

// Health 处理 GET /api/health。
func (h *ModelHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"status":        "ok",
		"capabilities":  h.capabilities(),
		"upload_limits": h.uploadService.Limits(),
	})
}
