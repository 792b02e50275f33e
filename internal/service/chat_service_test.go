package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/pipeline"
	"silicon-chat-go/internal/repository"
	"silicon-chat-go/pkg/database"
	"silicon-chat-go/pkg/llm"
	"silicon-chat-go/pkg/websearch"
)

type noopASR struct{}

func (noopASR) Transcribe(ctx context.Context, audioDataURI, language string) (string, error) {
	return "转写文本", nil
}

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(ctx context.Context, videoDataURI string, maxFrames int) (*pipeline.VideoSummary, error) {
	return nil, pipeline.ErrFrameExtractionUnavailable
}

type chatFixture struct {
	svc         ChatService
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
	siliconflow *scriptedClient
	groq        *scriptedClient
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	sf := &scriptedClient{name: model.ProviderSiliconFlow, replies: []llm.Completion{{Content: "文本回答"}}}
	gq := &scriptedClient{name: model.ProviderGroq, replies: []llm.Completion{{Content: "多模态回答"}}}
	caller := llm.NewCaller(map[string]llm.Client{sf.name: sf, gq.name: gq},
		llm.RetryPolicy{MaxAttempts: 1, AttemptTimeout: time.Second})

	registry, err := model.NewRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}
	normalizer := pipeline.NewNormalizer(noopASR{}, noopAnalyzer{}, 3)
	searchSvc := NewSearchService(caller, &fakeSearch{configured: true, result: websearch.SearchResult{Success: true}}, repository.NewSearchCache(nil, time.Minute))

	svc := NewChatService(registry, normalizer, caller, searchSvc, sessionRepo, messageRepo, nil, 0.7, 2000)
	return &chatFixture{svc: svc, sessionRepo: sessionRepo, messageRepo: messageRepo, siliconflow: sf, groq: gq}
}

func TestChatEmptyMessages(t *testing.T) {
	f := newChatFixture(t)
	_, _, err := f.svc.Chat(context.Background(), model.ChatRequest{})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestChatUnknownModel(t *testing.T) {
	f := newChatFixture(t)
	_, _, err := f.svc.Chat(context.Background(), model.ChatRequest{
		Messages: []model.ChatMessage{{Role: model.RoleUser, Text: "hi"}},
		Model:    "no-such-model",
	})
	if !errors.Is(err, model.ErrUnknownModel) {
		t.Fatalf("err = %v", err)
	}
}

func TestChatTextRoutedToDefault(t *testing.T) {
	f := newChatFixture(t)
	res, performed, err := f.svc.Chat(context.Background(), model.ChatRequest{
		Messages: []model.ChatMessage{{Role: model.RoleUser, Text: "你好"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Provider != model.ProviderSiliconFlow {
		t.Fatalf("res = %+v", res)
	}
	if performed {
		t.Error("search performed without enable_search")
	}
	if len(f.groq.requests) != 0 {
		t.Error("groq should not be called for pure text")
	}
}

// 含图片的会话必须静默切换到多模态默认模型。
func TestChatImageSwitchesToMultimodal(t *testing.T) {
	f := newChatFixture(t)
	res, _, err := f.svc.Chat(context.Background(), model.ChatRequest{
		Messages: []model.ChatMessage{{
			Role:  model.RoleUser,
			Text:  "图里是什么",
			Image: "data:image/png;base64,AAAA",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != model.ProviderGroq {
		t.Fatalf("provider = %s, want groq", res.Provider)
	}
	if res.Model != "meta-llama/llama-4-scout-17b-16e-instruct" {
		t.Errorf("model = %s", res.Model)
	}
}

// 音频消息即便被压平为文本，也要切到多模态默认模型。
func TestChatAudioSwitchesToMultimodal(t *testing.T) {
	f := newChatFixture(t)
	res, _, err := f.svc.Chat(context.Background(), model.ChatRequest{
		Messages: []model.ChatMessage{{
			Role:  model.RoleUser,
			Audio: "data:audio/wav;base64,AAAA",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != model.ProviderGroq {
		t.Fatalf("provider = %s, want groq", res.Provider)
	}
	// 发给服务商的载荷里不得再有音频，只有转写注释
	sent := f.groq.requests[0].Messages
	if len(sent) != 1 || sent[0].Content == "" {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestChatPersistsTurn(t *testing.T) {
	f := newChatFixture(t)
	if err := f.sessionRepo.Create(&model.ChatSession{ID: "s1", Title: "对话"}); err != nil {
		t.Fatal(err)
	}

	res, _, err := f.svc.Chat(context.Background(), model.ChatRequest{
		Messages:  []model.ChatMessage{{Role: model.RoleUser, Text: "你好"}},
		SessionID: "s1",
	})
	if err != nil || !res.Success {
		t.Fatalf("res = %+v err = %v", res, err)
	}

	msgs, err := f.messageRepo.List("s1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "你好" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Provider != model.ProviderSiliconFlow {
		t.Errorf("assistant message = %+v", msgs[1])
	}

	s, _ := f.sessionRepo.FindByID("s1")
	if s.MessageCount != 2 {
		t.Errorf("message_count = %d", s.MessageCount)
	}
}

// 指向不存在会话的轮次照常应答，只是跳过历史保存。
func TestChatUnknownSessionSkipsPersistence(t *testing.T) {
	f := newChatFixture(t)
	res, _, err := f.svc.Chat(context.Background(), model.ChatRequest{
		Messages:  []model.ChatMessage{{Role: model.RoleUser, Text: "hi"}},
		SessionID: "ghost",
	})
	if err != nil || !res.Success {
		t.Fatalf("res = %+v err = %v", res, err)
	}
	n, _ := f.messageRepo.CountBySession("ghost")
	if n != 0 {
		t.Errorf("messages persisted for missing session: %d", n)
	}
}

func TestSearchChatAutoSearchDisabled(t *testing.T) {
	f := newChatFixture(t)
	off := false
	res, performed, err := f.svc.SearchChat(context.Background(), model.SearchChatRequest{
		Message:    "你好",
		AutoSearch: &off,
	})
	if err != nil || !res.Success {
		t.Fatalf("res = %+v err = %v", res, err)
	}
	if performed {
		t.Error("performed = true with auto_search off")
	}
	// 直通路径不注入判定提示
	if sent := f.siliconflow.requests[0].Messages; sent[0].Role == model.RoleSystem {
		t.Errorf("unexpected system prompt: %+v", sent[0])
	}
}

func TestSearchChatEmptyMessage(t *testing.T) {
	f := newChatFixture(t)
	_, _, err := f.svc.SearchChat(context.Background(), model.SearchChatRequest{})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestSearchChatUsesHistory(t *testing.T) {
	f := newChatFixture(t)
	if err := f.sessionRepo.Create(&model.ChatSession{ID: "s1", Title: "对话"}); err != nil {
		t.Fatal(err)
	}
	hist := model.Message{SessionID: "s1", Role: model.RoleUser, Content: "之前的问题", ContentType: model.ContentTypeText}
	if err := f.messageRepo.Append(&hist); err != nil {
		t.Fatal(err)
	}

	off := false
	_, _, err := f.svc.SearchChat(context.Background(), model.SearchChatRequest{
		Message:    "继续",
		SessionID:  "s1",
		AutoSearch: &off,
	})
	if err != nil {
		t.Fatal(err)
	}
	sent := f.siliconflow.requests[0].Messages
	if len(sent) != 2 || sent[0].Content != "之前的问题" || sent[1].Content != "继续" {
		t.Fatalf("sent = %+v", sent)
	}
}
