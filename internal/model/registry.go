// Package model 包含了应用的数据模型定义。
package model

import (
	"fmt"

	"silicon-chat-go/internal/config"
)

// 服务商名称常量。
const (
	ProviderSiliconFlow = "siliconflow"
	ProviderGroq        = "groq"
)

// Registry 是启动时构建的只读模型注册表。
// 按照显式注入的方式传给各个服务，避免隐藏的全局可变状态。
type Registry struct {
	models            []ModelDescriptor
	byID              map[string]*ModelDescriptor
	defaultModel      *ModelDescriptor
	multimodalDefault *ModelDescriptor
}

// builtinModels 是配置未提供 models 段时使用的内置注册表，
// 与原始服务的可用模型列表保持一致。
func builtinModels() []config.ModelConfig {
	return []config.ModelConfig{
		{ID: "deepseek-ai/DeepSeek-V2.5", Name: "DeepSeek-V2.5", Provider: ProviderSiliconFlow, Default: true},
		{ID: "Qwen/Qwen2.5-7B-Instruct", Name: "Qwen2.5-7B-Instruct", Provider: ProviderSiliconFlow},
		{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Name: "Llama-4-Scout", Provider: ProviderGroq, SupportsImage: true, Multimodal: true},
	}
}

// NewRegistry 从配置构建模型注册表。
func NewRegistry(cfgs []config.ModelConfig) (*Registry, error) {
	if len(cfgs) == 0 {
		cfgs = builtinModels()
	}

	r := &Registry{byID: make(map[string]*ModelDescriptor, len(cfgs))}
	for _, mc := range cfgs {
		d := ModelDescriptor{
			ID:            mc.ID,
			Name:          mc.Name,
			Provider:      mc.Provider,
			SupportsImage: mc.SupportsImage,
			Default:       mc.Default,
		}
		r.models = append(r.models, d)
		ptr := &r.models[len(r.models)-1]
		r.byID[d.ID] = ptr
		if mc.Default {
			r.defaultModel = ptr
		}
		if mc.Multimodal {
			r.multimodalDefault = ptr
		}
	}

	if r.defaultModel == nil {
		r.defaultModel = &r.models[0]
	}
	if r.multimodalDefault == nil {
		// 没有显式指定时取第一个支持图片的模型
		for i := range r.models {
			if r.models[i].SupportsImage {
				r.multimodalDefault = &r.models[i]
				break
			}
		}
	}
	if r.multimodalDefault == nil {
		return nil, fmt.Errorf("模型注册表中没有支持图片的模型")
	}
	return r, nil
}

// List 返回全部模型描述符。
func (r *Registry) List() []ModelDescriptor {
	out := make([]ModelDescriptor, len(r.models))
	copy(out, r.models)
	return out
}

// Lookup 按 ID 查找模型。
func (r *Registry) Lookup(id string) (*ModelDescriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Default 返回默认文本模型。
func (r *Registry) Default() *ModelDescriptor {
	return r.defaultModel
}

// MultimodalDefault 返回固定的多模态回退模型。
func (r *Registry) MultimodalDefault() *ModelDescriptor {
	return r.multimodalDefault
}

// DefaultForProvider 返回某服务商的默认模型（优先全局默认，其次该服务商的第一个）。
func (r *Registry) DefaultForProvider(provider string) *ModelDescriptor {
	if r.defaultModel.Provider == provider {
		return r.defaultModel
	}
	for i := range r.models {
		if r.models[i].Provider == provider {
			return &r.models[i]
		}
	}
	return nil
}

// Select 根据请求的模型与会话中的媒体内容决定实际使用的模型与服务商。
//
// 规则（对调用方静默，只能通过响应里的 model/provider 字段观察到）：
//  1. 未知模型 → ErrUnknownModel；
//  2. 会话含图片而所选模型不支持图片 → 切换到固定的多模态默认模型；
//  3. 会话含音频/视频（已被归一化为文本注释）而所选模型不支持图片
//     → 同样切换，让更强的多模态模型处理富化后的文本。
func (r *Registry) Select(requestedID string, hasImage, hasOtherMedia bool) (*ModelDescriptor, error) {
	d := r.defaultModel
	if requestedID != "" {
		var ok bool
		if d, ok = r.byID[requestedID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, requestedID)
		}
	}

	if hasImage && !d.SupportsImage {
		return r.multimodalDefault, nil
	}
	if hasOtherMedia && !d.SupportsImage {
		return r.multimodalDefault, nil
	}
	return d, nil
}
