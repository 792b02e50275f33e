package llm

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// ErrorKind 区分服务商调用失败的类别，重试策略据此决策。
type ErrorKind int

const (
	// KindProvider 表示其它 HTTP/解析失败，不重试。
	KindProvider ErrorKind = iota
	// KindTimeout 表示单次调用超时，可重试。
	KindTimeout
	// KindConnection 表示连接级失败，可重试。
	KindConnection
	// KindUnconfigured 表示缺少 API 密钥，立即失败。
	KindUnconfigured
)

// CallError 是带类别标注的服务商调用错误。
type CallError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *CallError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Retryable 报告错误是否属于可重试类别（超时或连接失败）。
func Retryable(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind == KindTimeout || ce.Kind == KindConnection
	}
	return false
}

// classify 将传输层错误归类为超时或连接失败。
func classify(provider string, err error) *CallError {
	kind := KindConnection
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		kind = KindTimeout
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		kind = KindTimeout
	}
	return &CallError{Provider: provider, Kind: kind, Err: err}
}
