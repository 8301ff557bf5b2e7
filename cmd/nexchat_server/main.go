package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"nexchat_server/internal/config"
	dao "nexchat_server/internal/dao/mysql"
	myredis "nexchat_server/internal/dao/redis"
	"nexchat_server/internal/handler"
	"nexchat_server/internal/https_server"
	"nexchat_server/internal/infrastructure/logger"
	"nexchat_server/internal/service"
	"nexchat_server/internal/service/cache"
	"nexchat_server/internal/service/chat"
	"nexchat_server/pkg/util/jwt"
	"nexchat_server/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT 与雪花节点
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	snowflake.Init()

	// 6. 组装缓存层与实时服务器
	cacheSvc := cache.NewService(repos, myredis.GetCacheService())
	chatServer := chat.NewChatServer(chat.ChatServerConfig{
		Mode:         conf.KafkaConfig.MessageMode,
		Repos:        repos,
		CacheService: cacheSvc,
	})
	if conf.KafkaConfig.MessageMode == "kafka" {
		chatServer.InitKafka()
	}
	chatServer.Start()
	zap.L().Info("ChatServer 初始化成功", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 7. 初始化 Service 层与 Handler 层（依赖注入）
	service.InitServices(repos, cacheSvc, chatServer)
	handlers := handler.NewHandlers(service.Svc)

	// 8. 初始化 validator 翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("validator 翻译器初始化失败", zap.Error(err))
	}

	// 9. 初始化 HTTP 服务器并启动
	engine := https_server.Init(handlers, cacheSvc)
	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务器启动成功")

	// 10. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	chatServer.Close()
	zap.L().Info("服务器已关闭")
}
