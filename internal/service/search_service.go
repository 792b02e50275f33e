// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"silicon-chat-go/internal/repository"
	"silicon-chat-go/pkg/cndate"
	"silicon-chat-go/pkg/llm"
	"silicon-chat-go/pkg/log"
	"silicon-chat-go/pkg/websearch"
)

// 两段式协议的哨兵前缀：第一轮模型若判断需要检索，
// 以该前缀输出搜索查询，否则直接回答。
const searchSentinel = "SEARCH_REQUIRED:"

// 判定轮的系统提示。
const judgementPrompt = "你是一个智能助手。请先判断回答用户最新的问题是否需要检索实时信息或你不掌握的信息" +
	"（如最新新闻、实时价格、天气、近期事件等）。" +
	"如果需要，请只输出一行：SEARCH_REQUIRED:<用于搜索的查询词>，不要输出其他内容；" +
	"如果不需要，请直接正常回答用户的问题。"

// 搜索彻底失败时返回的静态兜底回复（不再发起第二轮模型调用）。
const searchFailedFallback = "抱歉，当前无法访问网络搜索服务，暂时不能获取最新信息。请稍后再试，或直接提供相关背景后再提问。"

// 函数调用回路的安全上限，防止模型反复请求工具。
const maxToolRounds = 3

// SearchService 实现搜索增强的两种策略：
// 显式函数调用（/api/chat 的 enable_search 路径）与
// 两段式哨兵协议（/api/chat/search 便捷端点），二者互不叠加。
type SearchService interface {
	// WebSearch 是对搜索服务商的原样透传（带缓存）。
	WebSearch(ctx context.Context, query string, count int, freshness string) websearch.SearchResult
	// ChatWithTools 以函数调用方式执行搜索增强的聊天补全。
	ChatWithTools(ctx context.Context, provider, model string, req llm.Request, fb *llm.Fallback) (llm.ProviderResult, bool)
	// TwoPassChat 以两段式哨兵协议执行搜索增强的聊天补全。
	TwoPassChat(ctx context.Context, provider, model string, req llm.Request, fb *llm.Fallback) (llm.ProviderResult, bool)
	// Configured 报告搜索服务商是否可用。
	Configured() bool
}

type searchService struct {
	caller *llm.Caller
	search websearch.Client
	cache  repository.SearchCache
	now    func() time.Time
}

// NewSearchService 创建搜索增强控制器。
func NewSearchService(caller *llm.Caller, search websearch.Client, cache repository.SearchCache) SearchService {
	return &searchService{caller: caller, search: search, cache: cache, now: time.Now}
}

func (s *searchService) Configured() bool {
	return s.search.Configured()
}

// WebSearch 带缓存地执行一次网页搜索。
func (s *searchService) WebSearch(ctx context.Context, query string, count int, freshness string) websearch.SearchResult {
	if cached, ok := s.cache.Get(ctx, query, count, freshness); ok {
		log.Infof("[SearchService] 命中搜索缓存, query: %s", query)
		return *cached
	}
	result := s.search.Search(ctx, query, count, freshness)
	s.cache.Set(ctx, query, count, freshness, result)
	return result
}

// webSearchTool 返回提供给模型的函数工具清单（目前只有 web_search）。
func webSearchTool() []llm.Tool {
	return []llm.Tool{{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "web_search",
			Description: "搜索互联网获取实时信息，如最新新闻、实时价格、天气、近期事件等。",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "搜索查询词",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "返回结果条数，默认 10",
					},
					"freshness": map[string]interface{}{
						"type":        "string",
						"description": "时效过滤，如 oneDay、oneWeek、oneMonth",
					},
				},
				"required": []string{"query"},
			},
		},
	}}
}

// ChatWithTools 把 web_search 工具传给服务商，若响应请求执行工具，
// 则逐个执行并以 role=tool 消息回填，再携带完整记录重新调用，
// 直到得到普通文本回答或达到轮次上限。
func (s *searchService) ChatWithTools(ctx context.Context, provider, model string, req llm.Request, fb *llm.Fallback) (llm.ProviderResult, bool) {
	req.Tools = webSearchTool()
	searchPerformed := false

	var res llm.ProviderResult
	for round := 0; round < maxToolRounds; round++ {
		res = s.caller.Call(ctx, provider, model, req, fb)
		if !res.Success || !res.RequiresToolExecution {
			return res, searchPerformed
		}

		// 回填模型的工具调用请求，再逐个执行并追加结果
		req.Messages = append(req.Messages, llm.Message{
			Role:      "assistant",
			Content:   res.Response,
			ToolCalls: res.ToolCalls,
		})
		for _, tc := range res.ToolCalls {
			output, performed := s.executeTool(ctx, tc)
			searchPerformed = searchPerformed || performed
			req.Messages = append(req.Messages, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    output,
			})
		}
	}

	log.Warnf("[SearchService] 函数调用超过 %d 轮仍未收敛", maxToolRounds)
	return res, searchPerformed
}

// executeTool 执行单个工具调用并返回序列化结果。
// 未知函数与缺失参数折叠为错误载荷回传给模型，而不是让请求失败。
func (s *searchService) executeTool(ctx context.Context, tc llm.ToolCall) (string, bool) {
	if tc.Function.Name != "web_search" {
		return toolError(fmt.Sprintf("未知的函数: %s", tc.Function.Name)), false
	}

	var args struct {
		Query     string `json:"query"`
		Count     int    `json:"count"`
		Freshness string `json:"freshness"`
	}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return toolError("函数参数解析失败: " + err.Error()), false
	}
	if strings.TrimSpace(args.Query) == "" {
		return toolError("缺少必需参数: query"), false
	}

	query := cndate.Expand(args.Query, s.now())
	result := s.WebSearch(ctx, query, args.Count, args.Freshness)

	b, err := json.Marshal(result)
	if err != nil {
		return toolError("搜索结果序列化失败: " + err.Error()), result.Success
	}
	return string(b), result.Success
}

func toolError(msg string) string {
	b, _ := json.Marshal(map[string]interface{}{"success": false, "error": msg})
	return string(b)
}

// TwoPassChat 实现两段式哨兵协议：
//
//	AWAITING_JUDGEMENT → {DIRECT_ANSWER | SEARCH_REQUESTED}
//	SEARCH_REQUESTED → (SEARCH_OK → FINAL_ANSWER) | (SEARCH_FAILED → FALLBACK_MESSAGE)
func (s *searchService) TwoPassChat(ctx context.Context, provider, model string, req llm.Request, fb *llm.Fallback) (llm.ProviderResult, bool) {
	// 第一轮：在原始消息前注入判定提示
	judgeReq := req
	judgeReq.Messages = append([]llm.Message{{Role: "system", Content: judgementPrompt}}, req.Messages...)

	first := s.caller.Call(ctx, provider, model, judgeReq, fb)
	if !first.Success {
		return first, false
	}

	answer := strings.TrimSpace(first.Response)
	if !strings.HasPrefix(answer, searchSentinel) {
		// DIRECT_ANSWER：无需检索，判定轮的回答就是最终回答
		return first, false
	}

	query := strings.TrimSpace(strings.TrimPrefix(answer, searchSentinel))
	if query == "" {
		return first, false
	}
	query = cndate.Expand(query, s.now())
	log.Infof("[SearchService] 模型请求搜索, query: %s", query)

	result := s.WebSearch(ctx, query, 0, "")
	if !result.Success {
		// SEARCH_FAILED → FALLBACK_MESSAGE：返回静态兜底，不再调用模型
		log.Warnf("[SearchService] 搜索失败, 返回兜底回复: %s", result.Error)
		return llm.ProviderResult{
			Success:  true,
			Response: searchFailedFallback,
			Provider: first.Provider,
			Model:    first.Model,
		}, false
	}

	// SEARCH_OK → FINAL_ANSWER：把结果块作为合成 system 消息追加后二次调用
	block := websearch.FormatForAI(result)
	finalReq := req
	finalReq.Messages = append(append([]llm.Message{}, req.Messages...), llm.Message{
		Role:    "system",
		Content: block + "\n请基于以上搜索结果回答用户的问题，并注明信息来源。",
	})

	final := s.caller.Call(ctx, provider, model, finalReq, fb)
	return final, final.Success
}
