package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/service"
)

// SessionHandler 负责会话管理相关的 HTTP 请求。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create 处理 POST /api/sessions。
func (h *SessionHandler) Create(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
		Model string `json:"model"`
	}
	// 空请求体也允许，全部字段取缺省值
	_ = c.ShouldBindJSON(&req)

	session, err := h.sessionService.Create(req.Title, req.Model)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// List 处理 GET /api/sessions。
func (h *SessionHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	sessions, err := h.sessionService.List(limit, offset)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": sessions, "count": len(sessions)})
}

// Get 处理 GET /api/sessions/:id。
func (h *SessionHandler) Get(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)

	detail, err := h.sessionService.Get(c.Param("id"), limit, offset)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": detail.Session, "messages": detail.Messages})
}

// UpdateTitle 处理 PUT /api/sessions/:id。
func (h *SessionHandler) UpdateTitle(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求体格式错误: "+err.Error())
		return
	}
	if err := h.sessionService.UpdateTitle(c.Param("id"), req.Title); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Archive 处理 POST /api/sessions/:id/archive。
func (h *SessionHandler) Archive(c *gin.Context) {
	if err := h.sessionService.Archive(c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete 处理 DELETE /api/sessions/:id。
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessionService.Delete(c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Statistics 处理 GET /api/statistics。
func (h *SessionHandler) Statistics(c *gin.Context) {
	stats, err := h.sessionService.Statistics()
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "statistics": stats})
}

// SearchMessages 处理 GET /api/search/messages。
func (h *SessionHandler) SearchMessages(c *gin.Context) {
	query := c.Query("q")
	sessionID := c.Query("session_id")
	limit := intQuery(c, "limit", 50)

	messages, err := h.sessionService.SearchMessages(query, sessionID, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages, "count": len(messages)})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
