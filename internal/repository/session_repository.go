// Package repository 提供了数据访问层的实现。
package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"silicon-chat-go/internal/model"
)

// SessionRepository 定义了对话会话的持久化操作接口。
type SessionRepository interface {
	Create(session *model.ChatSession) error
	// List 返回未归档会话，按更新时间倒序。
	List(limit, offset int) ([]model.ChatSession, error)
	FindByID(id string) (*model.ChatSession, error)
	UpdateTitle(id, title string) error
	Archive(id string) error
	// Delete 删除会话并级联删除其全部消息。
	Delete(id string) error
	Statistics() (*model.Statistics, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("创建会话失败: %w", err)
	}
	return nil
}

func (r *sessionRepository) List(limit, offset int) ([]model.ChatSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []model.ChatSession
	err := r.db.Where("is_archived = ?", false).
		Order("updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("获取会话列表失败: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) FindByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("获取会话失败: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateTitle(id, title string) error {
	res := r.db.Model(&model.ChatSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("更新会话标题失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Archive(id string) error {
	res := r.db.Model(&model.ChatSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_archived": true, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("归档会话失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&model.ChatSession{})
	if res.Error != nil {
		return fmt.Errorf("删除会话失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSessionNotFound
	}
	// 级联删除消息（SQLite 外键默认关闭，显式删除保证一致）
	if err := r.db.Where("session_id = ?", id).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("删除会话消息失败: %w", err)
	}
	return nil
}

func (r *sessionRepository) Statistics() (*model.Statistics, error) {
	var stats model.Statistics
	today := time.Now().Format("2006-01-02")

	if err := r.db.Model(&model.ChatSession{}).Where("is_archived = ?", false).Count(&stats.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("获取统计信息失败: %w", err)
	}
	if err := r.db.Model(&model.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("获取统计信息失败: %w", err)
	}
	if err := r.db.Model(&model.ChatSession{}).
		Where("is_archived = ? AND DATE(created_at) = ?", false, today).
		Count(&stats.TodaySessions).Error; err != nil {
		return nil, fmt.Errorf("获取统计信息失败: %w", err)
	}
	if err := r.db.Model(&model.Message{}).
		Where("DATE(created_at) = ?", today).
		Count(&stats.TodayMessages).Error; err != nil {
		return nil, fmt.Errorf("获取统计信息失败: %w", err)
	}
	return &stats, nil
}
