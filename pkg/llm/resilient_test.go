package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// stubClient 以脚本化的方式逐次返回预设结果。
type stubClient struct {
	name       string
	configured bool
	calls      atomic.Int32
	fn         func(call int32) (*Completion, error)
}

func (s *stubClient) ChatCompletion(ctx context.Context, model string, req Request) (*Completion, error) {
	return s.fn(s.calls.Add(1))
}

func (s *stubClient) Name() string     { return s.name }
func (s *stubClient) Configured() bool { return s.configured }

func timeoutErr(provider string) error {
	return &CallError{Provider: provider, Kind: KindTimeout, Err: errors.New("context deadline exceeded")}
}

func newTestCaller(primary, fallback Client) *Caller {
	return NewCaller(map[string]Client{
		primary.Name():  primary,
		fallback.Name(): fallback,
	}, RetryPolicy{MaxAttempts: 2, AttemptTimeout: time.Second})
}

func TestCallSuccessFirstAttempt(t *testing.T) {
	primary := &stubClient{name: "siliconflow", configured: true, fn: func(int32) (*Completion, error) {
		return &Completion{Content: "你好"}, nil
	}}
	fallback := &stubClient{name: "groq", configured: true, fn: func(int32) (*Completion, error) {
		t.Fatal("不应调用回退服务商")
		return nil, nil
	}}

	res := newTestCaller(primary, fallback).Call(context.Background(), "siliconflow", "m1", Request{}, &Fallback{Provider: "groq", Model: "m2"})
	if !res.Success || res.Response != "你好" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Provider != "siliconflow" || res.Model != "m1" {
		t.Errorf("provider/model = %s/%s", res.Provider, res.Model)
	}
}

func TestCallRetriesThenFallback(t *testing.T) {
	primary := &stubClient{name: "siliconflow", configured: true, fn: func(int32) (*Completion, error) {
		return nil, timeoutErr("siliconflow")
	}}
	fallback := &stubClient{name: "groq", configured: true, fn: func(int32) (*Completion, error) {
		return &Completion{Content: "回退回答"}, nil
	}}

	res := newTestCaller(primary, fallback).Call(context.Background(), "siliconflow", "m1", Request{}, &Fallback{Provider: "groq", Model: "m2"})
	if !res.Success {
		t.Fatalf("expected fallback success, got %+v", res)
	}
	// 信封必须标注实际应答的服务商与模型
	if res.Provider != "groq" || res.Model != "m2" {
		t.Errorf("provider/model = %s/%s, want groq/m2", res.Provider, res.Model)
	}
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("primary attempts = %d, want 2", got)
	}
	if got := fallback.calls.Load(); got != 1 {
		t.Errorf("fallback attempts = %d, want 1", got)
	}
}

func TestCallNonRetryableFailsImmediately(t *testing.T) {
	primary := &stubClient{name: "siliconflow", configured: true, fn: func(int32) (*Completion, error) {
		return nil, &CallError{Provider: "siliconflow", Kind: KindProvider, Err: fmt.Errorf("接口返回非 200 状态")}
	}}
	fallback := &stubClient{name: "groq", configured: true, fn: func(int32) (*Completion, error) {
		t.Fatal("不可重试错误不应触发回退")
		return nil, nil
	}}

	res := newTestCaller(primary, fallback).Call(context.Background(), "siliconflow", "m1", Request{}, &Fallback{Provider: "groq", Model: "m2"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Error, "网络请求错误: ") {
		t.Errorf("error = %q", res.Error)
	}
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("primary attempts = %d, want 1", got)
	}
}

func TestCallBothProvidersFail(t *testing.T) {
	primary := &stubClient{name: "siliconflow", configured: true, fn: func(int32) (*Completion, error) {
		return nil, timeoutErr("siliconflow")
	}}
	fallback := &stubClient{name: "groq", configured: true, fn: func(int32) (*Completion, error) {
		return nil, timeoutErr("groq")
	}}

	res := newTestCaller(primary, fallback).Call(context.Background(), "siliconflow", "m1", Request{}, &Fallback{Provider: "groq", Model: "m2"})
	if res.Success {
		t.Fatal("expected failure")
	}
	// 回退只允许一次，不再重试
	if got := fallback.calls.Load(); got != 1 {
		t.Errorf("fallback attempts = %d, want 1", got)
	}
}

func TestCallUnconfiguredProvider(t *testing.T) {
	primary := &stubClient{name: "siliconflow", configured: false, fn: func(int32) (*Completion, error) {
		t.Fatal("未配置的服务商不应被调用")
		return nil, nil
	}}
	fallback := &stubClient{name: "groq", configured: true, fn: func(int32) (*Completion, error) {
		return &Completion{Content: "x"}, nil
	}}

	res := newTestCaller(primary, fallback).Call(context.Background(), "siliconflow", "m1", Request{}, nil)
	if res.Success || !strings.Contains(res.Error, "未配置") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCallToolCallsSetRequiresToolExecution(t *testing.T) {
	primary := &stubClient{name: "siliconflow", configured: true, fn: func(int32) (*Completion, error) {
		return &Completion{ToolCalls: []ToolCall{{ID: "call_1", Type: "function"}}}, nil
	}}
	fallback := &stubClient{name: "groq", configured: true, fn: func(int32) (*Completion, error) { return nil, nil }}

	res := newTestCaller(primary, fallback).Call(context.Background(), "siliconflow", "m1", Request{}, nil)
	if !res.Success || !res.RequiresToolExecution || len(res.ToolCalls) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&CallError{Kind: KindTimeout, Err: errors.New("x")}, true},
		{&CallError{Kind: KindConnection, Err: errors.New("x")}, true},
		{&CallError{Kind: KindProvider, Err: errors.New("x")}, false},
		{&CallError{Kind: KindUnconfigured, Err: errors.New("x")}, false},
		{errors.New("plain"), false},
	}
	for _, c := range cases {
		if got := Retryable(c.err); got != c.want {
			t.Errorf("Retryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
