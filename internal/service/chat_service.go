// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"time"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/pipeline"
	"silicon-chat-go/internal/repository"
	"silicon-chat-go/pkg/kafka"
	"silicon-chat-go/pkg/llm"
	"silicon-chat-go/pkg/log"
)

// ChatService 编排一次完整的聊天轮次：
// 归一化多媒体 → 选择模型/服务商 → 弹性调用（可选搜索增强）→ 尽力持久化。
type ChatService interface {
	// Chat 处理 POST /api/chat。enable_search 时走函数调用式搜索增强。
	Chat(ctx context.Context, req model.ChatRequest) (llm.ProviderResult, bool, error)
	// SearchChat 处理 POST /api/chat/search：单条消息的两段式搜索增强。
	SearchChat(ctx context.Context, req model.SearchChatRequest) (llm.ProviderResult, bool, error)
}

type chatService struct {
	registry    *model.Registry
	normalizer  *pipeline.Normalizer
	caller      *llm.Caller
	searchSvc   SearchService
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
	producer    *kafka.Producer
	temperature float64
	maxTokens   int
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	registry *model.Registry,
	normalizer *pipeline.Normalizer,
	caller *llm.Caller,
	searchSvc SearchService,
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
	producer *kafka.Producer,
	temperature float64,
	maxTokens int,
) ChatService {
	return &chatService{
		registry:    registry,
		normalizer:  normalizer,
		caller:      caller,
		searchSvc:   searchSvc,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		producer:    producer,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Chat 处理一次多消息聊天轮次。
func (s *chatService) Chat(ctx context.Context, req model.ChatRequest) (llm.ProviderResult, bool, error) {
	if len(req.Messages) == 0 {
		return llm.ProviderResult{}, false, fmt.Errorf("%w: 消息不能为空", model.ErrValidation)
	}

	// 音频/视频的存在性要在归一化之前判断，归一化会清掉这些字段
	hasOtherMedia := false
	for i := range req.Messages {
		if req.Messages[i].Audio != "" || req.Messages[i].Video != "" {
			hasOtherMedia = true
			break
		}
	}

	normalized := s.normalizer.Normalize(ctx, req.Messages)

	// 图片的存在性在归一化之后判断：视频首帧也可能成为图片
	hasImage := false
	for i := range normalized {
		if normalized[i].HasImage() {
			hasImage = true
			break
		}
	}

	desc, err := s.registry.Select(req.Model, hasImage, hasOtherMedia)
	if err != nil {
		return llm.ProviderResult{}, false, err
	}
	if desc.ID != req.Model && req.Model != "" {
		log.Infof("[ChatService] 模型已切换: %s -> %s (%s)", req.Model, desc.ID, desc.Provider)
	}

	llmReq := s.buildRequest(req.SystemPrompt, req.Temperature, normalized)
	fb := s.fallbackFor(desc)

	var result llm.ProviderResult
	searchPerformed := false
	if req.EnableSearch {
		result, searchPerformed = s.searchSvc.ChatWithTools(ctx, desc.Provider, desc.ID, llmReq, fb)
	} else {
		result = s.caller.Call(ctx, desc.Provider, desc.ID, llmReq, fb)
	}

	if result.Success && req.SessionID != "" {
		s.persistTurn(req.SessionID, lastUserMessage(req.Messages), result)
		s.publishTurn(ctx, req.SessionID, result, searchPerformed)
	}
	return result, searchPerformed, nil
}

// SearchChat 处理单条消息的两段式搜索增强轮次。
func (s *chatService) SearchChat(ctx context.Context, req model.SearchChatRequest) (llm.ProviderResult, bool, error) {
	if req.Message == "" {
		return llm.ProviderResult{}, false, fmt.Errorf("%w: 消息不能为空", model.ErrValidation)
	}

	desc, err := s.registry.Select(req.Model, false, false)
	if err != nil {
		return llm.ProviderResult{}, false, err
	}

	// 带上会话历史作为上下文（尽力而为，失败时继续）
	var history []llm.Message
	if req.SessionID != "" {
		history = s.loadHistory(req.SessionID)
	}

	messages := append(history, llm.Message{Role: model.RoleUser, Content: req.Message})
	llmReq := llm.Request{Messages: messages, Temperature: &s.temperature, MaxTokens: s.maxTokens}
	fb := s.fallbackFor(desc)

	var result llm.ProviderResult
	searchPerformed := false
	if req.AutoSearch == nil || *req.AutoSearch {
		result, searchPerformed = s.searchSvc.TwoPassChat(ctx, desc.Provider, desc.ID, llmReq, fb)
	} else {
		result = s.caller.Call(ctx, desc.Provider, desc.ID, llmReq, fb)
	}

	if result.Success && req.SessionID != "" {
		userMsg := model.ChatMessage{Role: model.RoleUser, Text: req.Message}
		s.persistTurn(req.SessionID, &userMsg, result)
		s.publishTurn(ctx, req.SessionID, result, searchPerformed)
	}
	return result, searchPerformed, nil
}

// buildRequest 把归一化后的消息转换为服务商请求。
func (s *chatService) buildRequest(systemPrompt string, temperature *float64, msgs []model.ChatMessage) llm.Request {
	out := make([]llm.Message, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, llm.Message{Role: model.RoleSystem, Content: systemPrompt})
	}
	for i := range msgs {
		out = append(out, llm.Message{
			Role:    msgs[i].Role,
			Content: msgs[i].Text,
			Image:   msgs[i].Image,
		})
	}

	temp := s.temperature
	if temperature != nil {
		temp = *temperature
	}
	return llm.Request{Messages: out, Temperature: &temp, MaxTokens: s.maxTokens}
}

// fallbackFor 返回跨服务商的回退目标：另一家服务商的默认模型。
func (s *chatService) fallbackFor(primary *model.ModelDescriptor) *llm.Fallback {
	other := model.ProviderGroq
	if primary.Provider == model.ProviderGroq {
		other = model.ProviderSiliconFlow
	}
	d := s.registry.DefaultForProvider(other)
	if d == nil || !s.caller.Configured(other) {
		return nil
	}
	return &llm.Fallback{Provider: d.Provider, Model: d.ID}
}

// loadHistory 读取会话最近的消息作为模型上下文。
func (s *chatService) loadHistory(sessionID string) []llm.Message {
	msgs, err := s.messageRepo.List(sessionID, 20, 0)
	if err != nil {
		log.Errorf("[ChatService] 加载会话历史失败: %v", err)
		return nil
	}
	out := make([]llm.Message, 0, len(msgs))
	for i := range msgs {
		if msgs[i].Role != model.RoleUser && msgs[i].Role != model.RoleAssistant {
			continue
		}
		out = append(out, llm.Message{Role: msgs[i].Role, Content: msgs[i].Content})
	}
	return out
}

// persistTurn 为完成的轮次保存恰好一对 user/assistant 消息。
// 持久化失败只记录日志，绝不让聊天响应失败。
func (s *chatService) persistTurn(sessionID string, userMsg *model.ChatMessage, result llm.ProviderResult) {
	if userMsg == nil {
		return
	}
	if _, err := s.sessionRepo.FindByID(sessionID); err != nil {
		log.Warnf("[ChatService] 会话 %s 不存在，跳过历史保存", sessionID)
		return
	}

	media := userMsg.Image
	if media == "" {
		media = userMsg.Audio
	}
	if media == "" {
		media = userMsg.Video
	}
	err := s.messageRepo.Append(&model.Message{
		SessionID:   sessionID,
		Role:        model.RoleUser,
		Content:     userMsg.Text,
		ContentType: userMsg.ContentType(),
		MediaData:   media,
	})
	if err != nil {
		log.Errorf("[ChatService] 保存用户消息失败: %v", err)
		return
	}

	err = s.messageRepo.Append(&model.Message{
		SessionID:   sessionID,
		Role:        model.RoleAssistant,
		Content:     result.Response,
		ContentType: model.ContentTypeText,
		Model:       result.Model,
		Provider:    result.Provider,
	})
	if err != nil {
		log.Errorf("[ChatService] 保存助手消息失败: %v", err)
	}
}

// publishTurn 上报对话轮次事件（Kafka 未配置时为空操作）。
func (s *chatService) publishTurn(ctx context.Context, sessionID string, result llm.ProviderResult, searchPerformed bool) {
	s.producer.PublishTurn(ctx, kafka.TurnEvent{
		SessionID:       sessionID,
		Model:           result.Model,
		Provider:        result.Provider,
		SearchPerformed: searchPerformed,
		CompletedAt:     time.Now(),
	})
}

// lastUserMessage 返回请求中最后一条用户消息。
func lastUserMessage(msgs []model.ChatMessage) *model.ChatMessage {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			return &msgs[i]
		}
	}
	return nil
}
