package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/pkg/log"
)

// Client 定义了单个服务商聊天补全客户端的接口。
type Client interface {
	// ChatCompletion 以非流式方式调用 /chat/completions。
	ChatCompletion(ctx context.Context, model string, req Request) (*Completion, error)
	// Name 返回服务商名称（siliconflow / groq）。
	Name() string
	// Configured 报告 API 密钥是否已配置。
	Configured() bool
}

type openAICompatibleClient struct {
	name   string
	cfg    config.ProviderConfig
	client *http.Client
}

// NewClient 创建一个 OpenAI 兼容接口的聊天客户端。
// SiliconFlow 与 Groq 走同一套报文格式，仅 base URL 与密钥不同。
func NewClient(name string, cfg config.ProviderConfig) Client {
	return &openAICompatibleClient{
		name:   name,
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (c *openAICompatibleClient) Name() string {
	return c.name
}

func (c *openAICompatibleClient) Configured() bool {
	return c.cfg.APIKey != ""
}

// 线上报文结构。content 在含图片时是分段数组，否则是纯字符串。
type wireMessage struct {
	Role       string      `json:"role"`
	Content    interface{} `json:"content"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
}

type wireContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []Tool        `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatCompletion 调用服务商的 /chat/completions 接口并解析首个 choice。
func (c *openAICompatibleClient) ChatCompletion(ctx context.Context, model string, req Request) (*Completion, error) {
	if !c.Configured() {
		return nil, &CallError{Provider: c.name, Kind: KindUnconfigured, Err: fmt.Errorf("API 密钥未配置")}
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    toWireMessages(req.Messages),
		Stream:      false,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Tools:       req.Tools,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &CallError{Provider: c.name, Kind: KindProvider, Err: fmt.Errorf("序列化请求失败: %w", err)}
	}

	log.Infof("[LLMClient] 发送请求到 %s，模型: %s, 消息数: %d", c.name, model, len(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, &CallError{Provider: c.name, Kind: KindProvider, Err: fmt.Errorf("创建请求失败: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classify(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &CallError{
			Provider: c.name,
			Kind:     KindProvider,
			Err:      fmt.Errorf("接口返回非 200 状态: %s, body: %s", resp.Status, string(bodyBytes)),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &CallError{Provider: c.name, Kind: KindProvider, Err: fmt.Errorf("响应格式错误: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &CallError{Provider: c.name, Kind: KindProvider, Err: fmt.Errorf("响应中没有 choices")}
	}

	choice := parsed.Choices[0]
	return &Completion{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
	}, nil
}

// toWireMessages 将内部消息转换为线上格式。
// 带图片的 user 消息展开为 text + image_url 分段，其余保持纯文本。
func toWireMessages(msgs []Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := wireMessage{Role: m.Role, ToolCallID: m.ToolCallID, ToolCalls: m.ToolCalls}
		if m.Role == "user" && m.Image != "" {
			parts := []wireContentPart{}
			if m.Content != "" {
				parts = append(parts, wireContentPart{Type: "text", Text: m.Content})
			}
			parts = append(parts, wireContentPart{Type: "image_url", ImageURL: &wireImageURL{URL: m.Image}})
			wm.Content = parts
		} else {
			wm.Content = m.Content
		}
		out = append(out, wm)
	}
	return out
}
