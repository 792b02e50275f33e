// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// ChatSession 定义了 chat_sessions 表的 ORM 模型。
type ChatSession struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Model        string    `gorm:"type:varchar(128)" json:"model"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_sessions_created_at,sort:desc" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	MessageCount int       `gorm:"not null;default:0" json:"message_count"`
	IsArchived   bool      `gorm:"not null;default:false" json:"is_archived"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// Message 定义了 messages 表的 ORM 模型。
// MediaData 保存消息附带的 data URI（如有）。
type Message struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string    `gorm:"type:varchar(36);not null;index:idx_messages_session_id" json:"session_id"`
	Role        string    `gorm:"type:varchar(16);not null" json:"role"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentType string    `gorm:"type:varchar(16);not null;default:text" json:"content_type"`
	MediaData   string    `gorm:"type:text" json:"media_data,omitempty"`
	Model       string    `gorm:"type:varchar(128)" json:"model,omitempty"`
	Provider    string    `gorm:"type:varchar(32)" json:"provider,omitempty"`
	FileName    string    `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}

// SearchedMessage 是历史消息搜索的结果行，附带所属会话标题。
type SearchedMessage struct {
	Message
	SessionTitle string `json:"session_title"`
}

// Statistics 汇总会话与消息的总量及今日新增量。
type Statistics struct {
	TotalSessions int64 `json:"total_sessions"`
	TotalMessages int64 `json:"total_messages"`
	TodaySessions int64 `json:"today_sessions"`
	TodayMessages int64 `json:"today_messages"`
}
