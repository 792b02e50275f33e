// Package main 是应用程序的入口点。
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/internal/handler"
	"silicon-chat-go/internal/middleware"
	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/pipeline"
	"silicon-chat-go/internal/repository"
	"silicon-chat-go/internal/service"
	"silicon-chat-go/pkg/asr"
	"silicon-chat-go/pkg/database"
	"silicon-chat-go/pkg/kafka"
	"silicon-chat-go/pkg/llm"
	"silicon-chat-go/pkg/log"
	"silicon-chat-go/pkg/storage"
	"silicon-chat-go/pkg/websearch"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据存储：SQLite 必需，Redis/MinIO/Kafka 均为可选
	database.InitSQLite(cfg.Database.SQLite.Path)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	archive := storage.InitMinIO(cfg.MinIO)
	producer := kafka.InitProducer(cfg.Kafka)
	defer producer.Close()

	// 4. 初始化 Repository
	sessionRepo := repository.NewSessionRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	searchCache := repository.NewSearchCache(database.RDB, time.Duration(cfg.Database.Redis.CacheTTL)*time.Second)

	// 5. 初始化模型注册表与服务商客户端
	registry, err := model.NewRegistry(cfg.Models)
	if err != nil {
		log.Fatalf("模型注册表初始化失败: %v", err)
	}
	clients := map[string]llm.Client{
		model.ProviderSiliconFlow: llm.NewClient(model.ProviderSiliconFlow, cfg.SiliconFlow),
		model.ProviderGroq:        llm.NewClient(model.ProviderGroq, cfg.Groq),
	}
	caller := llm.NewCaller(clients, llm.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		AttemptTimeout: time.Duration(cfg.Retry.TimeoutSeconds) * time.Second,
		Backoff:        time.Duration(cfg.Retry.BackoffMillis) * time.Millisecond,
	})

	// 6. 初始化多媒体归一化管道
	asrService := asr.NewService(cfg.Groq, cfg.SiliconFlow)
	normalizer := pipeline.NewNormalizer(asrService, pipeline.NewFrameAnalyzer(), cfg.Video.MaxFrames)

	// 7. 初始化 Service (依赖注入)
	bochaClient := websearch.NewClient(cfg.Bocha)
	searchService := service.NewSearchService(caller, bochaClient, searchCache)
	chatService := service.NewChatService(
		registry, normalizer, caller, searchService,
		sessionRepo, messageRepo, producer,
		cfg.Generation.Temperature, cfg.Generation.MaxTokens,
	)
	sessionService := service.NewSessionService(sessionRepo, messageRepo)
	uploadService := service.NewUploadService(cfg.Upload, archive)
	transcribeService := service.NewTranscribeService(asrService)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), middleware.CORS(), gin.Recovery())

	// 9. 注册路由
	chatHandler := handler.NewChatHandler(chatService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	uploadHandler := handler.NewUploadHandler(uploadService, transcribeService)
	transcribeHandler := handler.NewTranscribeHandler(transcribeService)
	searchHandler := handler.NewSearchHandler(searchService)
	modelHandler := handler.NewModelHandler(registry, caller, searchService, uploadService)

	api := r.Group("/api")
	{
		api.GET("/models", modelHandler.Models)
		api.GET("/health", modelHandler.Health)
		api.GET("/statistics", sessionHandler.Statistics)

		api.POST("/chat", chatHandler.Chat)
		api.POST("/chat/search", chatHandler.SearchChat)

		upload := api.Group("/upload")
		{
			upload.POST("", uploadHandler.Image)
			upload.POST("/audio", uploadHandler.Audio)
			upload.POST("/video", uploadHandler.Video)
			upload.POST("/record", uploadHandler.Record)
		}
		api.POST("/transcribe", transcribeHandler.Transcribe)

		sessions := api.Group("/sessions")
		{
			sessions.GET("", sessionHandler.List)
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.PUT("/:id", sessionHandler.UpdateTitle)
			sessions.DELETE("/:id", sessionHandler.Delete)
			sessions.POST("/:id/archive", sessionHandler.Archive)
		}

		api.GET("/search", searchHandler.Search)
		api.POST("/search/web", searchHandler.SearchWeb)
		api.GET("/search/messages", sessionHandler.SearchMessages)
	}

	// 10. 启动 HTTP 服务器并支持优雅关闭
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		log.Infof("服务器启动，监听端口 %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("服务器关闭异常: %v", err)
	}
	log.Info("服务器已退出")
}
