// Package asr 提供语音转文字客户端：优先走 Groq Whisper，
// 失败后回退到 SiliconFlow 的转写接口。
package asr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/pkg/log"
)

// Service 定义了转写服务的接口。
type Service interface {
	// Transcribe 将 data URI 形式的音频转为文字。language 可为空。
	Transcribe(ctx context.Context, audioDataURI, language string) (string, error)
}

type client struct {
	name string
	cfg  config.ProviderConfig
	http *http.Client
}

type chain struct {
	primary  *client
	fallback *client
}

// NewService 创建主备转写服务链。
func NewService(groq, siliconflow config.ProviderConfig) Service {
	return &chain{
		primary:  &client{name: "groq", cfg: groq, http: &http.Client{}},
		fallback: &client{name: "siliconflow", cfg: siliconflow, http: &http.Client{}},
	}
}

// Transcribe 先尝试主服务商，失败后回退；两者都失败时返回最后的错误。
func (s *chain) Transcribe(ctx context.Context, audioDataURI, language string) (string, error) {
	text, err := s.primary.transcribe(ctx, audioDataURI, language)
	if err == nil {
		return text, nil
	}
	log.Warnf("[ASR] 主转写服务 %s 失败，尝试回退: %v", s.primary.name, err)

	text, fbErr := s.fallback.transcribe(ctx, audioDataURI, language)
	if fbErr == nil {
		return text, nil
	}
	return "", fmt.Errorf("转写失败: %w", fbErr)
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// transcribe 调用 OpenAI 兼容的 /audio/transcriptions 接口。
func (c *client) transcribe(ctx context.Context, audioDataURI, language string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%s API 密钥未配置", c.name)
	}

	mimeType, data, err := DecodeDataURI(audioDataURI)
	if err != nil {
		return "", fmt.Errorf("无效的音频数据: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+extensionFor(mimeType))
	if err != nil {
		return "", fmt.Errorf("构建表单失败: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("写入音频数据失败: %w", err)
	}
	_ = writer.WriteField("model", c.cfg.TranscriptionModel)
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("关闭表单失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用转写接口失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("转写接口返回非 200 状态: %s, body: %s", resp.Status, string(b))
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("解析转写响应失败: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

// DecodeDataURI 解析 data:<mime>;base64,<payload> 形式的内联资源。
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("不是 data URI")
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return "", nil, fmt.Errorf("data URI 缺少数据段")
	}
	meta := uri[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("仅支持 base64 编码的 data URI")
	}
	mimeType = strings.TrimSuffix(meta, ";base64")

	data, err = base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return "", nil, fmt.Errorf("base64 解码失败: %w", err)
	}
	return mimeType, data, nil
}

// extensionFor 按 MIME 类型给转写接口一个合理的文件后缀。
func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/flac":
		return ".flac"
	default:
		return ".bin"
	}
}
