package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/service"
)

// SearchHandler 负责网络搜索透传的 HTTP 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 处理 GET /api/search。
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		fail(c, http.StatusBadRequest, "缺少查询参数 q")
		return
	}
	count := intQuery(c, "count", 10)
	freshness := c.DefaultQuery("freshness", "noLimit")

	h.respond(c, query, count, freshness)
}

// SearchWeb 处理 POST /api/search/web。
func (h *SearchHandler) SearchWeb(c *gin.Context) {
	var req struct {
		Query     string `json:"query"`
		Count     int    `json:"count"`
		Freshness string `json:"freshness"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求体格式错误: "+err.Error())
		return
	}
	if req.Query == "" {
		fail(c, http.StatusBadRequest, "搜索关键词不能为空")
		return
	}
	if req.Count <= 0 {
		req.Count = 10
	}
	if req.Freshness == "" {
		req.Freshness = "noLimit"
	}

	h.respond(c, req.Query, req.Count, req.Freshness)
}

func (h *SearchHandler) respond(c *gin.Context, query string, count int, freshness string) {
	result := h.searchService.WebSearch(c.Request.Context(), query, count, freshness)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}
