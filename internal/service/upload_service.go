// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/internal/model"
	"silicon-chat-go/pkg/log"
	"silicon-chat-go/pkg/storage"
)

// 上传类别。
const (
	UploadKindImage = "image"
	UploadKindAudio = "audio"
	UploadKindVideo = "video"
)

// 各类别的扩展名白名单与对应 MIME 类型。
var allowedExtensions = map[string]map[string]string{
	UploadKindImage: {
		".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
		".gif": "image/gif", ".webp": "image/webp", ".bmp": "image/bmp",
	},
	UploadKindAudio: {
		".mp3": "audio/mpeg", ".wav": "audio/wav", ".m4a": "audio/mp4",
		".ogg": "audio/ogg", ".webm": "audio/webm", ".flac": "audio/flac",
		".aac": "audio/aac",
	},
	UploadKindVideo: {
		".mp4": "video/mp4", ".avi": "video/x-msvideo", ".mov": "video/quicktime",
		".wmv": "video/x-ms-wmv", ".flv": "video/x-flv", ".webm": "video/webm",
		".mkv": "video/x-matroska",
	},
}

var kindLabels = map[string]string{
	UploadKindImage: "图片",
	UploadKindAudio: "音频",
	UploadKindVideo: "视频",
}

// UploadResult 描述一次成功的上传。
type UploadResult struct {
	DataURI  string `json:"data_uri"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// UploadService 校验上传文件并将其编码为 data URI。
type UploadService interface {
	Process(ctx context.Context, kind string, header *multipart.FileHeader) (*UploadResult, error)
	// Limits 返回各类别的大小上限（字节），用于能力查询。
	Limits() map[string]int64
}

type uploadService struct {
	cfg     config.UploadConfig
	archive *storage.Archive
}

// NewUploadService 创建一个新的 UploadService 实例。
func NewUploadService(cfg config.UploadConfig, archive *storage.Archive) UploadService {
	return &uploadService{cfg: cfg, archive: archive}
}

func (s *uploadService) Limits() map[string]int64 {
	return map[string]int64{
		UploadKindImage: s.cfg.MaxImageBytes,
		UploadKindAudio: s.cfg.MaxAudioBytes,
		UploadKindVideo: s.cfg.MaxVideoBytes,
	}
}

func (s *uploadService) limitFor(kind string) int64 {
	switch kind {
	case UploadKindImage:
		return s.cfg.MaxImageBytes
	case UploadKindAudio:
		return s.cfg.MaxAudioBytes
	case UploadKindVideo:
		return s.cfg.MaxVideoBytes
	default:
		return 0
	}
}

// Process 校验扩展名与大小后把文件编码为 data:<mime>;base64,<payload>。
// 恰好等于上限的文件被接受，超出一个字节即拒绝。
func (s *uploadService) Process(ctx context.Context, kind string, header *multipart.FileHeader) (*UploadResult, error) {
	exts, ok := allowedExtensions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: 不支持的上传类别 %s", model.ErrValidation, kind)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mimeType, ok := exts[ext]
	if !ok {
		return nil, fmt.Errorf("%w: 不支持的%s格式 %s", model.ErrValidation, kindLabels[kind], ext)
	}

	limit := s.limitFor(kind)
	if header.Size > limit {
		return nil, fmt.Errorf("%w: %s文件过大，最大支持 %dMB", model.ErrValidation, kindLabels[kind], limit/(1024*1024))
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s文件过大，最大支持 %dMB", model.ErrValidation, kindLabels[kind], limit/(1024*1024))
	}

	log.Infof("[UploadService] 接收%s上传: %s (%d 字节)", kindLabels[kind], header.Filename, len(data))

	// 尽力而为的媒体归档，不影响上传结果
	s.archive.Put(ctx, archiveObjectName(kind, header.Filename), mimeType, data)

	return &UploadResult{
		DataURI:  fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
		FileName: header.Filename,
		FileSize: int64(len(data)),
		MimeType: mimeType,
	}, nil
}

func archiveObjectName(kind, fileName string) string {
	return fmt.Sprintf("%s/%s_%s", kind, time.Now().Format("20060102T150405"), filepath.Base(fileName))
}
