// Package pipeline 实现多媒体消息的归一化处理：
// 把音频/视频附件压平为文字注释，最多保留一张图片，
// 保证发往不支持这些模态的服务商的载荷有界。
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/pkg/asr"
	"silicon-chat-go/pkg/log"
)

// 转写/解析彻底失败时追加的引导性注释。
const (
	audioFallbackNote = "（用户发送了一段音频，语音转文字失败,请结合用户的文字描述进行回应）"
	videoFallbackNote = "（用户发送了一段视频，无法自动解析视频内容，请让用户补充描述画面、动作、时间线与事件）"
)

// Normalizer 对一组 ChatMessage 做就地归一化。
type Normalizer struct {
	asr       asr.Service
	frames    FrameAnalyzer
	maxFrames int
}

// NewNormalizer 创建多媒体归一化器。
func NewNormalizer(asrSvc asr.Service, frames FrameAnalyzer, maxFrames int) *Normalizer {
	if maxFrames <= 0 {
		maxFrames = 5
	}
	return &Normalizer{asr: asrSvc, frames: frames, maxFrames: maxFrames}
}

// Normalize 返回与输入等长的消息序列，其中：
//   - 每个 audio 字段被替换为追加的文字注释（转写结果或引导性说明）；
//   - 每个 video 字段被替换为概述文字，成功时首帧成为该消息的 image；
//   - 每条消息最多保留一张图片；
//   - 纯文本消息原样通过；空输入返回空序列。
func (n *Normalizer) Normalize(ctx context.Context, msgs []model.ChatMessage) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, n.normalizeOne(ctx, m))
	}
	return out
}

func (n *Normalizer) normalizeOne(ctx context.Context, m model.ChatMessage) model.ChatMessage {
	if m.Audio != "" {
		n.flattenAudio(ctx, &m)
	}
	if m.Video != "" {
		n.flattenVideo(ctx, &m)
	}
	return m
}

// flattenAudio 把音频转写为文字并入 text，随后清除 audio 字段。
func (n *Normalizer) flattenAudio(ctx context.Context, m *model.ChatMessage) {
	defer func() { m.Audio = "" }()

	if !strings.HasPrefix(m.Audio, "data:audio/") {
		log.Warnf("[Normalizer] 消息携带了无效的音频数据，已移除")
		appendText(m, audioFallbackNote)
		return
	}

	text, err := n.asr.Transcribe(ctx, m.Audio, "")
	if err != nil || text == "" {
		log.Warnf("[Normalizer] 音频转写失败: %v", err)
		appendText(m, audioFallbackNote)
		return
	}
	appendText(m, fmt.Sprintf("[语音转文字] “%s”", text))
}

// flattenVideo 把视频替换为概述文字，成功时首帧作为消息图片保留。
func (n *Normalizer) flattenVideo(ctx context.Context, m *model.ChatMessage) {
	defer func() { m.Video = "" }()

	summary, err := n.frames.Analyze(ctx, m.Video, n.maxFrames)
	if err != nil || summary == nil {
		log.Warnf("[Normalizer] 视频关键帧分析失败: %v", err)
		appendText(m, videoFallbackNote)
		return
	}

	appendText(m, fmt.Sprintf("[视频内容分析] %s", summary.Description))
	// 最多保留一张图片：调用方原有图片优先
	if m.Image == "" && summary.FirstFrame != "" {
		m.Image = summary.FirstFrame
	}
}

func appendText(m *model.ChatMessage, note string) {
	if m.Text == "" {
		m.Text = note
		return
	}
	m.Text = m.Text + "\n" + note
}
