// Package model 包含了应用的数据模型定义。
package model

import "errors"

// 领域错误。各层用 errors.Is 判别，HTTP 层据此映射状态码。
var (
	// ErrUnknownModel 表示请求了注册表中不存在的模型。
	ErrUnknownModel = errors.New("未知的模型")

	// ErrValidation 表示请求体不合法（空消息列表、格式/大小超限等）。
	ErrValidation = errors.New("请求参数无效")

	// ErrSessionNotFound 表示会话不存在。
	ErrSessionNotFound = errors.New("会话不存在")

	// ErrStorage 表示持久化失败。只记录并上报，绝不让聊天请求失败。
	ErrStorage = errors.New("存储操作失败")
)
