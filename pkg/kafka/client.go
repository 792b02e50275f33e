// Package kafka 提供了与 Kafka 消息队列交互的功能。
// 本服务只做生产者：每个完成的对话轮次上报一条事件，供下游统计消费。
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/pkg/log"
)

// TurnEvent 是一次完成的对话轮次的事件载荷。
type TurnEvent struct {
	SessionID       string    `json:"session_id"`
	Model           string    `json:"model"`
	Provider        string    `json:"provider"`
	SearchPerformed bool      `json:"search_performed"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Producer 发送对话轮次事件。未配置 Brokers 时为 nil，所有上报都被跳过。
type Producer struct {
	writer *kafka.Writer
}

// InitProducer 初始化 Kafka 生产者。配置缺失时返回 nil。
func InitProducer(cfg config.KafkaConfig) *Producer {
	if cfg.Brokers == "" {
		log.Info("Kafka 未配置，对话事件上报已禁用")
		return nil
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// PublishTurn 上报一条对话轮次事件。失败只记录，绝不影响聊天响应。
func (p *Producer) PublishTurn(ctx context.Context, ev TurnEvent) {
	if p == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("序列化对话事件失败: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: b}); err != nil {
		log.Errorf("上报对话事件失败: %v", err)
	}
}

// Close 关闭生产者。
func (p *Producer) Close() {
	if p == nil {
		return
	}
	if err := p.writer.Close(); err != nil {
		log.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
}
