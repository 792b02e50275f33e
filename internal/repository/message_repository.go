// Package repository 提供了数据访问层的实现。
package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"silicon-chat-go/internal/model"
)

// MessageRepository 定义了消息的持久化操作接口。
type MessageRepository interface {
	// Append 插入一条消息并更新所属会话的消息计数与更新时间。
	Append(msg *model.Message) error
	// List 按创建时间升序返回会话消息。
	List(sessionID string, limit, offset int) ([]model.Message, error)
	// Search 对消息内容做 LIKE 搜索，sessionID 为空时跨全部会话。
	Search(query, sessionID string, limit int) ([]model.SearchedMessage, error)
	CountBySession(sessionID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Append(msg *model.Message) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("添加消息失败: %w", err)
	}
	// 计数递增不包事务，与会话行的并发写在此处接受常规的丢失更新
	err := r.db.Model(&model.ChatSession{}).Where("id = ?", msg.SessionID).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + 1"),
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("更新会话消息计数失败: %w", err)
	}
	return nil
}

func (r *messageRepository) List(sessionID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var msgs []model.Message
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("获取消息列表失败: %w", err)
	}
	return msgs, nil
}

func (r *messageRepository) Search(query, sessionID string, limit int) ([]model.SearchedMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	tx := r.db.Table("messages m").
		Select("m.*, s.title AS session_title").
		Joins("JOIN chat_sessions s ON m.session_id = s.id").
		Where("m.content LIKE ?", "%"+query+"%")
	if sessionID != "" {
		tx = tx.Where("m.session_id = ?", sessionID)
	}

	var rows []model.SearchedMessage
	if err := tx.Order("m.created_at DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("搜索消息失败: %w", err)
	}
	return rows, nil
}

func (r *messageRepository) CountBySession(sessionID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("获取消息数量失败: %w", err)
	}
	return count, nil
}
