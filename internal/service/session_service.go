// Package service 包含了应用的业务逻辑层。
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/repository"
)

// SessionDetail 是查询单个会话时返回的会话与消息集合。
type SessionDetail struct {
	Session  *model.ChatSession `json:"session"`
	Messages []model.Message    `json:"messages"`
}

// SessionService 定义了会话管理的业务接口。
type SessionService interface {
	Create(title, modelID string) (*model.ChatSession, error)
	List(limit, offset int) ([]model.ChatSession, error)
	Get(id string, limit, offset int) (*SessionDetail, error)
	UpdateTitle(id, title string) error
	Archive(id string) error
	Delete(id string) error
	Statistics() (*model.Statistics, error)
	SearchMessages(query, sessionID string, limit int) ([]model.SearchedMessage, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
}

// NewSessionService 创建一个新的 SessionService。
func NewSessionService(sessionRepo repository.SessionRepository, messageRepo repository.MessageRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo, messageRepo: messageRepo}
}

// Create 创建新会话。标题缺省为“对话 <当前时间>”。
func (s *sessionService) Create(title, modelID string) (*model.ChatSession, error) {
	if title == "" {
		title = fmt.Sprintf("对话 %s", time.Now().Format("2006-01-02 15:04"))
	}
	session := &model.ChatSession{
		ID:    uuid.NewString(),
		Title: title,
		Model: modelID,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) List(limit, offset int) ([]model.ChatSession, error) {
	return s.sessionRepo.List(limit, offset)
}

func (s *sessionService) Get(id string, limit, offset int) (*SessionDetail, error) {
	session, err := s.sessionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.List(id, limit, offset)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: session, Messages: messages}, nil
}

func (s *sessionService) UpdateTitle(id, title string) error {
	if title == "" {
		return fmt.Errorf("%w: 标题不能为空", model.ErrValidation)
	}
	return s.sessionRepo.UpdateTitle(id, title)
}

func (s *sessionService) Archive(id string) error {
	return s.sessionRepo.Archive(id)
}

func (s *sessionService) Delete(id string) error {
	return s.sessionRepo.Delete(id)
}

func (s *sessionService) Statistics() (*model.Statistics, error) {
	return s.sessionRepo.Statistics()
}

func (s *sessionService) SearchMessages(query, sessionID string, limit int) ([]model.SearchedMessage, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: 搜索关键词不能为空", model.ErrValidation)
	}
	return s.messageRepo.Search(query, sessionID, limit)
}
