// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Log         LogConfig        `mapstructure:"log"`
	SiliconFlow ProviderConfig   `mapstructure:"siliconflow"`
	Groq        ProviderConfig   `mapstructure:"groq"`
	Bocha       BochaConfig      `mapstructure:"bocha"`
	Models      []ModelConfig    `mapstructure:"models"`
	Retry       RetryConfig      `mapstructure:"retry"`
	Upload      UploadConfig     `mapstructure:"upload"`
	Video       VideoConfig      `mapstructure:"video"`
	MinIO       MinIOConfig      `mapstructure:"minio"`
	Kafka       KafkaConfig      `mapstructure:"kafka"`
	Generation  GenerationConfig `mapstructure:"generation"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据存储的配置。
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SQLiteConfig 存储 SQLite 数据库的配置。
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时禁用搜索结果缓存。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl_seconds"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ProviderConfig 存储单个大模型服务商的接入配置。
type ProviderConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

// BochaConfig 存储博查网络搜索 API 的配置。
type BochaConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ModelConfig 描述一个可供选择的聊天模型。
type ModelConfig struct {
	ID            string `mapstructure:"id"`
	Name          string `mapstructure:"name"`
	Provider      string `mapstructure:"provider"`
	SupportsImage bool   `mapstructure:"supports_image"`
	Default       bool   `mapstructure:"default"`
	Multimodal    bool   `mapstructure:"multimodal_default"`
}

// RetryConfig 控制重试与回退策略。
type RetryConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	BackoffMillis  int `mapstructure:"backoff_millis"`
}

// UploadConfig 控制文件上传的大小上限（字节）。
type UploadConfig struct {
	MaxImageBytes int64 `mapstructure:"max_image_bytes"`
	MaxAudioBytes int64 `mapstructure:"max_audio_bytes"`
	MaxVideoBytes int64 `mapstructure:"max_video_bytes"`
}

// VideoConfig 控制视频关键帧分析。
type VideoConfig struct {
	MaxFrames int `mapstructure:"max_frames"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。Endpoint 为空时禁用媒体归档。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时禁用事件上报。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// GenerationConfig 配置聊天补全的默认生成参数。
type GenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// API 密钥类字段支持用环境变量覆盖（如 SILICONFLOW_API_KEY）。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("siliconflow.api_key", "SILICONFLOW_API_KEY")
	_ = viper.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = viper.BindEnv("bocha.api_key", "BOCHA_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	ApplyDefaults(&Conf)
}

// ApplyDefaults 为缺省配置补齐与原始行为一致的默认值。
func ApplyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = "chat_history.db"
	}
	if c.Database.Redis.CacheTTL == 0 {
		c.Database.Redis.CacheTTL = 300
	}
	if c.SiliconFlow.BaseURL == "" {
		c.SiliconFlow.BaseURL = "https://api.siliconflow.cn/v1"
	}
	if c.SiliconFlow.TranscriptionModel == "" {
		c.SiliconFlow.TranscriptionModel = "FunAudioLLM/SenseVoiceSmall"
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Groq.TranscriptionModel == "" {
		c.Groq.TranscriptionModel = "whisper-large-v3"
	}
	if c.Bocha.BaseURL == "" {
		c.Bocha.BaseURL = "https://api.bochaai.com/v1"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 2
	}
	if c.Retry.TimeoutSeconds == 0 {
		c.Retry.TimeoutSeconds = 60
	}
	if c.Upload.MaxImageBytes == 0 {
		c.Upload.MaxImageBytes = 4 * 1024 * 1024
	}
	if c.Upload.MaxAudioBytes == 0 {
		c.Upload.MaxAudioBytes = 10 * 1024 * 1024
	}
	if c.Upload.MaxVideoBytes == 0 {
		c.Upload.MaxVideoBytes = 50 * 1024 * 1024
	}
	if c.Video.MaxFrames == 0 {
		c.Video.MaxFrames = 5
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.7
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = 2000
	}
}
