package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/service"
	"silicon-chat-go/pkg/log"
)

// ChatHandler 负责处理聊天相关的 HTTP 请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat 处理 POST /api/chat。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求体格式错误: "+err.Error())
		return
	}

	result, searchPerformed, err := h.chatService.Chat(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}

	body := gin.H{
		"success":  result.Success,
		"provider": result.Provider,
		"model":    result.Model,
	}
	if req.SessionID != "" {
		body["session_id"] = req.SessionID
	}
	if req.EnableSearch {
		body["search_performed"] = searchPerformed
	}
	if result.Success {
		body["response"] = result.Response
		c.JSON(http.StatusOK, body)
		return
	}
	body["error"] = result.Error
	log.Warnf("[ChatHandler] 聊天调用失败: provider=%s model=%s error=%s", result.Provider, result.Model, result.Error)
	c.JSON(http.StatusInternalServerError, body)
}

// SearchChat 处理 POST /api/chat/search：单条消息的两段式搜索增强。
func (h *ChatHandler) SearchChat(c *gin.Context) {
	var req model.SearchChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求体格式错误: "+err.Error())
		return
	}
	if req.Message == "" {
		fail(c, http.StatusBadRequest, "消息不能为空")
		return
	}

	result, searchPerformed, err := h.chatService.SearchChat(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}

	body := gin.H{
		"success":          result.Success,
		"provider":         result.Provider,
		"model":            result.Model,
		"search_performed": searchPerformed,
	}
	if req.SessionID != "" {
		body["session_id"] = req.SessionID
	}
	if result.Success {
		body["response"] = result.Response
		c.JSON(http.StatusOK, body)
		return
	}
	body["error"] = result.Error
	c.JSON(http.StatusInternalServerError, body)
}
