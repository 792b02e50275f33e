package llm

import (
	"context"
	"errors"
	"time"

	"silicon-chat-go/pkg/log"
)

// RetryPolicy 是一条显式的有限状态重试策略：
// 主服务商最多 MaxAttempts 次（仅超时/连接错误重试），
// 每次调用带 AttemptTimeout 上限，耗尽后对回退目标一次性调用。
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// Fallback 指定重试耗尽后的回退服务商与模型。
type Fallback struct {
	Provider string
	Model    string
}

// Caller 以统一的 ProviderResult 信封包装带重试与回退的服务商调用。
type Caller struct {
	clients map[string]Client
	policy  RetryPolicy
}

// NewCaller 创建一个弹性调用器。clients 以服务商名称为键。
func NewCaller(clients map[string]Client, policy RetryPolicy) *Caller {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 2
	}
	if policy.AttemptTimeout <= 0 {
		policy.AttemptTimeout = 60 * time.Second
	}
	return &Caller{clients: clients, policy: policy}
}

// Configured 报告指定服务商是否已配置密钥。
func (c *Caller) Configured(provider string) bool {
	cl, ok := c.clients[provider]
	return ok && cl.Configured()
}

// Call 执行一次带重试与回退的聊天补全。
// 无论最终由哪个服务商应答，返回统一信封并标注实际应答方。
func (c *Caller) Call(ctx context.Context, provider, model string, req Request, fb *Fallback) ProviderResult {
	client, ok := c.clients[provider]
	if !ok {
		return ProviderResult{Success: false, Error: "未知的服务商: " + provider}
	}
	if !client.Configured() {
		return ProviderResult{Success: false, Error: provider + " API 密钥未配置"}
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		comp, err := c.attempt(ctx, client, model, req)
		if err == nil {
			return envelope(provider, model, comp)
		}
		lastErr = err

		if !Retryable(err) {
			// 其它错误不重试，直接作为普通失败上报
			log.Errorf("[ResilientCall] %s 调用失败（不可重试）: %v", provider, err)
			return ProviderResult{Success: false, Error: "网络请求错误: " + err.Error()}
		}

		log.Warnf("[ResilientCall] %s 第 %d/%d 次调用失败: %v", provider, attempt, c.policy.MaxAttempts, err)
		if attempt < c.policy.MaxAttempts && c.policy.Backoff > 0 {
			select {
			case <-time.After(c.policy.Backoff):
			case <-ctx.Done():
				return ProviderResult{Success: false, Error: "网络请求错误: " + ctx.Err().Error()}
			}
		}
	}

	// 重试耗尽：对回退目标一次性调用，不再重试
	if fb != nil {
		if fbClient, ok := c.clients[fb.Provider]; ok && fbClient.Configured() {
			log.Warnf("[ResilientCall] %s 重试耗尽，回退到 %s/%s", provider, fb.Provider, fb.Model)
			comp, err := c.attempt(ctx, fbClient, fb.Model, req)
			if err == nil {
				return envelope(fb.Provider, fb.Model, comp)
			}
			lastErr = err
		}
	}

	return ProviderResult{Success: false, Error: "网络请求错误: " + lastErr.Error()}
}

// attempt 执行单次受超时约束的调用。
func (c *Caller) attempt(ctx context.Context, client Client, model string, req Request) (*Completion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()

	comp, err := client.ChatCompletion(attemptCtx, model, req)
	if err != nil {
		// 上层 ctx 已超时的情况也归类为超时
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !Retryable(err) {
			return nil, &CallError{Provider: client.Name(), Kind: KindTimeout, Err: err}
		}
		return nil, err
	}
	return comp, nil
}

// envelope 把成功的补全包装为统一信封，并检测函数调用请求。
func envelope(provider, model string, comp *Completion) ProviderResult {
	res := ProviderResult{
		Success:  true,
		Response: comp.Content,
		Provider: provider,
		Model:    model,
	}
	if len(comp.ToolCalls) > 0 {
		res.RequiresToolExecution = true
		res.ToolCalls = comp.ToolCalls
	}
	return res
}
