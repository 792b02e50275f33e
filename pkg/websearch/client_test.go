package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"silicon-chat-go/internal/config"
)

func TestSearchUnconfigured(t *testing.T) {
	c := NewClient(config.BochaConfig{})
	if c.Configured() {
		t.Fatal("Configured() = true without api key")
	}
	r := c.Search(context.Background(), "天气", 5, "")
	if r.Success || r.Error == "" {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/web-search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %s", got)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["query"] != "北京天气" || req["summary"] != true {
			t.Errorf("request body = %v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{
				"webPages": map[string]interface{}{
					"value": []map[string]interface{}{{
						"name":          "北京天气预报",
						"url":           "https://example.com/weather",
						"summary":       "晴转多云",
						"siteName":      "天气网",
						"datePublished": "2025-03-15",
					}},
					"totalEstimatedMatches": 100,
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.BochaConfig{APIKey: "test-key", BaseURL: srv.URL})
	r := c.Search(context.Background(), "北京天气", 5, "oneDay")
	if !r.Success {
		t.Fatalf("search failed: %s", r.Error)
	}
	if len(r.Results) != 1 || r.Results[0].Title != "北京天气预报" {
		t.Fatalf("results = %+v", r.Results)
	}
	if r.TotalCount != 100 {
		t.Errorf("total = %d", r.TotalCount)
	}
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(config.BochaConfig{APIKey: "k", BaseURL: srv.URL})
	r := c.Search(context.Background(), "q", 1, "")
	if r.Success || !strings.Contains(r.Error, "非 200") {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestFormatForAI(t *testing.T) {
	got := FormatForAI(SearchResult{
		Success:  true,
		Query:    "黄金价格",
		Provider: "博查AI",
		Results: []Result{{
			Title:         "今日金价",
			URL:           "https://example.com/gold",
			Summary:       "每克 600 元",
			SiteName:      "财经网",
			PublishedDate: "2025-03-15",
		}},
	})
	for _, want := range []string{"## 网络搜索结果", "**搜索查询**: 黄金价格", "### 1. 今日金价", "- 链接: https://example.com/gold", "- 摘要: 每克 600 元"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatForAIFailure(t *testing.T) {
	got := FormatForAI(SearchResult{Success: false, Error: "超时"})
	if got != "搜索失败: 超时" {
		t.Errorf("got %q", got)
	}
}

func TestFormatForAIEmptyResults(t *testing.T) {
	got := FormatForAI(SearchResult{Success: true, Query: "q"})
	if !strings.Contains(got, "没有找到相关结果") {
		t.Errorf("got %q", got)
	}
}
