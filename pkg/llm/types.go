// Package llm provides clients for OpenAI-compatible chat completion
// providers and a resilient call wrapper around them.
package llm

// Message 表示发给聊天补全接口的一条角色消息。
// Image 为可选的 data URI；ToolCallID/ToolCalls 用于函数调用回路。
type Message struct {
	Role       string
	Content    string
	Image      string
	ToolCallID string
	ToolCalls  []ToolCall
}

// Tool 是传给服务商的函数工具声明。
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction 描述一个可被模型调用的函数。
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall 是模型在响应中发出的一次函数调用请求。
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction 携带被调函数名与 JSON 编码的实参。
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Request 是一次聊天补全调用的参数（模型与服务商由调用方指定）。
type Request struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
	Tools       []Tool
}

// Completion 是一次成功调用的解析结果。
type Completion struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// ProviderResult 是所有服务商调用统一返回并一路透传到 HTTP 边界的信封。
// Provider/Model 标注实际应答的服务商与模型（可能因回退而不同于请求值）。
type ProviderResult struct {
	Success               bool       `json:"success"`
	Response              string     `json:"response,omitempty"`
	Provider              string     `json:"provider,omitempty"`
	Model                 string     `json:"model,omitempty"`
	Error                 string     `json:"error,omitempty"`
	RequiresToolExecution bool       `json:"requires_tool_execution,omitempty"`
	ToolCalls             []ToolCall `json:"-"`
}
