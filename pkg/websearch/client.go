// Package websearch 提供博查网络搜索 API 的客户端。
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/pkg/log"
)

// Result 是一条网页搜索结果。
type Result struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Summary       string `json:"summary"`
	SiteName      string `json:"siteName"`
	PublishedDate string `json:"publishedDate"`
}

// Image 是一条图片搜索结果。
type Image struct {
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ContentURL   string `json:"contentUrl"`
}

// SearchResult 是搜索调用的统一信封。
// 它只作为瞬态数据被格式化进对话，不以结构化形式持久化。
type SearchResult struct {
	Success    bool     `json:"success"`
	Query      string   `json:"query"`
	Results    []Result `json:"results,omitempty"`
	Images     []Image  `json:"images,omitempty"`
	TotalCount int      `json:"total_count"`
	Provider   string   `json:"search_provider,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Client 定义了网络搜索客户端的接口。
type Client interface {
	// Search 执行一次网页搜索。count<=0 时使用默认条数，freshness 可为空。
	Search(ctx context.Context, query string, count int, freshness string) SearchResult
	// Configured 报告 API 密钥是否已配置。
	Configured() bool
}

type bochaClient struct {
	cfg  config.BochaConfig
	http *http.Client
}

// NewClient 创建博查搜索客户端。
func NewClient(cfg config.BochaConfig) Client {
	return &bochaClient{cfg: cfg, http: &http.Client{}}
}

func (c *bochaClient) Configured() bool {
	return c.cfg.APIKey != ""
}

type searchRequest struct {
	Query     string `json:"query"`
	Summary   bool   `json:"summary"`
	Count     int    `json:"count"`
	Freshness string `json:"freshness,omitempty"`
}

type searchResponse struct {
	Code int `json:"code"`
	Data struct {
		WebPages struct {
			Value []struct {
				Name          string `json:"name"`
				URL           string `json:"url"`
				Snippet       string `json:"snippet"`
				Summary       string `json:"summary"`
				SiteName      string `json:"siteName"`
				DatePublished string `json:"datePublished"`
			} `json:"value"`
			TotalEstimatedMatches int `json:"totalEstimatedMatches"`
		} `json:"webPages"`
		Images struct {
			Value []struct {
				Name         string `json:"name"`
				ThumbnailURL string `json:"thumbnailUrl"`
				ContentURL   string `json:"contentUrl"`
			} `json:"value"`
		} `json:"images"`
	} `json:"data"`
	Msg string `json:"msg"`
}

// Search 调用博查的 /web-search 接口，任何失败都折叠进信封而不抛出。
func (c *bochaClient) Search(ctx context.Context, query string, count int, freshness string) SearchResult {
	if !c.Configured() {
		return SearchResult{Success: false, Query: query, Error: "搜索服务未配置 API 密钥"}
	}
	if count <= 0 {
		count = 10
	}

	log.Infof("[WebSearch] 执行网络搜索, query: %s, count: %d", query, count)

	reqBytes, err := json.Marshal(searchRequest{Query: query, Summary: true, Count: count, Freshness: freshness})
	if err != nil {
		return SearchResult{Success: false, Query: query, Error: "序列化搜索请求失败: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/web-search", bytes.NewReader(reqBytes))
	if err != nil {
		return SearchResult{Success: false, Query: query, Error: "创建搜索请求失败: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Errorf("[WebSearch] 搜索请求失败: %v", err)
		return SearchResult{Success: false, Query: query, Error: "搜索请求失败: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return SearchResult{Success: false, Query: query, Error: fmt.Sprintf("搜索接口返回非 200 状态: %s, body: %s", resp.Status, string(b))}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SearchResult{Success: false, Query: query, Error: "解析搜索响应失败: " + err.Error()}
	}

	out := SearchResult{
		Success:    true,
		Query:      query,
		TotalCount: parsed.Data.WebPages.TotalEstimatedMatches,
		Provider:   "博查AI",
	}
	for _, v := range parsed.Data.WebPages.Value {
		out.Results = append(out.Results, Result{
			Title:         v.Name,
			URL:           v.URL,
			Snippet:       v.Snippet,
			Summary:       v.Summary,
			SiteName:      v.SiteName,
			PublishedDate: v.DatePublished,
		})
	}
	for _, v := range parsed.Data.Images.Value {
		out.Images = append(out.Images, Image{Name: v.Name, ThumbnailURL: v.ThumbnailURL, ContentURL: v.ContentURL})
	}

	log.Infof("[WebSearch] 搜索成功, query: '%s', 返回 %d 条结果", query, len(out.Results))
	return out
}

// FormatForAI 把搜索结果格式化为注入对话的 Markdown 块。
// 失败的结果格式化为一段带原因的失败说明。
func FormatForAI(r SearchResult) string {
	if !r.Success {
		return fmt.Sprintf("搜索失败: %s", r.Error)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("## 网络搜索结果\n\n**搜索查询**: %s\n", r.Query))
	if r.Provider != "" {
		b.WriteString(fmt.Sprintf("**搜索来源**: %s\n", r.Provider))
	}
	b.WriteString("\n")

	for i, res := range r.Results {
		b.WriteString(fmt.Sprintf("### %d. %s\n", i+1, res.Title))
		b.WriteString(fmt.Sprintf("- 链接: %s\n", res.URL))
		if res.SiteName != "" {
			b.WriteString(fmt.Sprintf("- 来源: %s\n", res.SiteName))
		}
		if res.PublishedDate != "" {
			b.WriteString(fmt.Sprintf("- 发布时间: %s\n", res.PublishedDate))
		}
		if res.Summary != "" {
			b.WriteString(fmt.Sprintf("- 摘要: %s\n", res.Summary))
		} else if res.Snippet != "" {
			b.WriteString(fmt.Sprintf("- 摘要: %s\n", res.Snippet))
		}
		b.WriteString("\n")
	}

	if len(r.Results) == 0 {
		b.WriteString("（没有找到相关结果）\n")
	}
	return b.String()
}
