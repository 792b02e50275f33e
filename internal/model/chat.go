// Package model 包含了应用的数据模型定义。
package model

import "strings"

// 消息角色常量。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// 内容类型常量，对应消息表的 content_type 列。
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeAudio = "audio"
	ContentTypeVideo = "video"
)

// ChatMessage 是调用方提交的一条对话消息。
// 媒体字段均为 data URI；多媒体归一化会就地改写这些字段。
type ChatMessage struct {
	Role  string `json:"role"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
	Audio string `json:"audio,omitempty"`
	Video string `json:"video,omitempty"`
}

// HasImage 报告消息是否携带内联图片。
func (m *ChatMessage) HasImage() bool {
	return strings.HasPrefix(m.Image, "data:image/")
}

// ContentType 根据携带的媒体推断消息的内容类型。
func (m *ChatMessage) ContentType() string {
	switch {
	case m.Video != "":
		return ContentTypeVideo
	case m.Audio != "":
		return ContentTypeAudio
	case m.Image != "":
		return ContentTypeImage
	default:
		return ContentTypeText
	}
}

// ChatRequest 是 POST /api/chat 的请求体。
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	Model        string        `json:"model"`
	SessionID    string        `json:"session_id"`
	SystemPrompt string        `json:"system_prompt"`
	Temperature  *float64      `json:"temperature"`
	EnableSearch bool          `json:"enable_search"`
}

// SearchChatRequest 是 POST /api/chat/search 的请求体，
// 以单条消息的便捷形式暴露两段式搜索增强。
type SearchChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	Model      string `json:"model"`
	AutoSearch *bool  `json:"auto_search"`
}

// ModelDescriptor 描述可选模型及其能力，来自启动时构建的注册表。
type ModelDescriptor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsImage bool   `json:"supports_image"`
	Default       bool   `json:"default"`
}
