// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/pkg/asr"
	"silicon-chat-go/pkg/log"
)

// RecordRequest 是 POST /api/upload/record 的请求体：
// 浏览器录音得到的音频 data URI，可选地附带客户端已有的转写文本。
type RecordRequest struct {
	AudioData  string `json:"audio_data"`
	Transcribe bool   `json:"transcribe"`
	Language   string `json:"language"`
	Transcript string `json:"transcript"`
}

// RecordResult 是录音处理的结果。
type RecordResult struct {
	DataURI    string `json:"data_uri"`
	Transcript string `json:"transcript,omitempty"`
}

// TranscribeService 封装语音转文字及录音上传处理。
type TranscribeService interface {
	Transcribe(ctx context.Context, audioDataURI, language string) (string, error)
	ProcessRecording(ctx context.Context, req RecordRequest) (*RecordResult, error)
}

type transcribeService struct {
	asr asr.Service
}

// NewTranscribeService 创建一个新的 TranscribeService 实例。
func NewTranscribeService(asrSvc asr.Service) TranscribeService {
	return &transcribeService{asr: asrSvc}
}

func (s *transcribeService) Transcribe(ctx context.Context, audioDataURI, language string) (string, error) {
	if !strings.HasPrefix(audioDataURI, "data:audio/") {
		return "", fmt.Errorf("%w: audio_data 必须是 data:audio/ 开头的 data URI", model.ErrValidation)
	}
	return s.asr.Transcribe(ctx, audioDataURI, language)
}

// ProcessRecording 处理一段浏览器录音。
// 客户端提供的转写文本优先于服务端转写；服务端转写失败不让上传失败。
func (s *transcribeService) ProcessRecording(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	if !strings.HasPrefix(req.AudioData, "data:audio/") {
		return nil, fmt.Errorf("%w: audio_data 必须是 data:audio/ 开头的 data URI", model.ErrValidation)
	}

	result := &RecordResult{DataURI: req.AudioData}

	if req.Transcript != "" {
		result.Transcript = req.Transcript
		return result, nil
	}
	if req.Transcribe {
		text, err := s.asr.Transcribe(ctx, req.AudioData, req.Language)
		if err != nil {
			log.Warnf("[TranscribeService] 录音转写失败: %v", err)
		} else {
			result.Transcript = text
		}
	}
	return result, nil
}
