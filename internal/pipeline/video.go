package pipeline

import (
	"context"
	"errors"
)

// VideoSummary 是关键帧分析的产物：一段自然语言概述与首帧截图。
type VideoSummary struct {
	Description string
	FirstFrame  string // data:image/... URI
	FrameCount  int
}

// FrameAnalyzer 抽象视频关键帧提取与逐帧启发式分析
// （运动变化、亮度、边缘密度）。具体实现依赖外部视觉组件，
// 因而以接口形式注入；默认实现始终报告不可用。
type FrameAnalyzer interface {
	Analyze(ctx context.Context, videoDataURI string, maxFrames int) (*VideoSummary, error)
}

// ErrFrameExtractionUnavailable 表示当前部署没有可用的关键帧提取实现。
var ErrFrameExtractionUnavailable = errors.New("视频关键帧提取不可用")

type unavailableAnalyzer struct{}

// NewFrameAnalyzer 返回默认的帧分析器。
func NewFrameAnalyzer() FrameAnalyzer {
	return unavailableAnalyzer{}
}

func (unavailableAnalyzer) Analyze(ctx context.Context, videoDataURI string, maxFrames int) (*VideoSummary, error) {
	return nil, ErrFrameExtractionUnavailable
}
