package database

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/pkg/log"
)

var DB *gorm.DB

// Open 打开指定路径的 SQLite 数据库并自动建表。
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// SQLite 是单文件库，限制连接数避免写锁竞争
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.ChatSession{}, &model.Message{}); err != nil {
		return nil, err
	}
	return db, nil
}

// InitSQLite 初始化全局 SQLite 数据库连接。
func InitSQLite(path string) {
	var err error
	DB, err = Open(path)
	if err != nil {
		log.Fatal("failed to connect database", err)
	}
	log.Info("SQLite database connected successfully")
}
