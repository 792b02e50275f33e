// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/pkg/log"
)

// Archive 把上传的媒体文件归档到 MinIO 存储桶。
// 未配置 Endpoint 时为 nil，所有归档调用都被跳过。
type Archive struct {
	client *minio.Client
	bucket string
}

// InitMinIO 初始化 MinIO 客户端并确保归档存储桶存在。
// 配置缺失或连接失败时返回 nil（归档是尽力而为的附属功能）。
func InitMinIO(cfg config.MinIOConfig) *Archive {
	if cfg.Endpoint == "" {
		log.Info("MinIO 未配置，媒体归档已禁用")
		return nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Error("初始化 MinIO 客户端失败，媒体归档已禁用", err)
		return nil
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Error("检查 MinIO 存储桶失败，媒体归档已禁用", err)
		return nil
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			log.Error("创建 MinIO 存储桶失败，媒体归档已禁用", err)
			return nil
		}
	}

	log.Info("MinIO 客户端初始化成功")
	return &Archive{client: client, bucket: cfg.BucketName}
}

// Put 将一份媒体数据写入存储桶。失败只记录，不向上传播。
func (a *Archive) Put(ctx context.Context, objectName, contentType string, data []byte) {
	if a == nil {
		return
	}
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Errorf("归档媒体文件失败: %s, err=%v", objectName, err)
		return
	}
	log.Infof("媒体文件已归档: %s (%d 字节)", objectName, len(data))
}
