package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"market_chat_server/internal/config"
	dao "market_chat_server/internal/dao/mysql"
	myredis "market_chat_server/internal/dao/redis"
	"market_chat_server/internal/handler"
	"market_chat_server/internal/https_server"
	"market_chat_server/internal/infrastructure/logger"
	"market_chat_server/internal/router"
	"market_chat_server/internal/service"
	"market_chat_server/internal/service/chat"
	"market_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	// 3. 初始化 JWT
	if conf.JWTConfig.Secret == "" {
		zap.L().Fatal("jwt secret is empty, set jwtConfig.secret or CHAT_JWT_SECRET")
	}
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.Issuer, conf.JWTConfig.AccessTokenExpiry)

	// 4. 初始化数据库
	repos, err := dao.Init(&conf.MysqlConfig)
	if err != nil {
		zap.L().Fatal("数据库初始化失败", zap.Error(err))
	}
	zap.L().Info("数据库初始化成功", zap.String("driver", conf.MysqlConfig.Driver))

	// 5. 初始化 Redis（可选）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisCache, err := myredis.Init(ctx, &conf.RedisConfig)
	if err != nil {
		zap.L().Fatal("Redis 初始化失败", zap.Error(err))
	}
	// nil 指针不能直接赋给接口，否则接口不为 nil
	var cache myredis.AsyncCacheService
	chatCfg := chat.ChatServerConfig{
		Mode: conf.KafkaConfig.MessageMode,
		Kafka: chat.KafkaConfig{
			HostPort:    conf.KafkaConfig.HostPort,
			Topic:       conf.KafkaConfig.ChatTopic,
			GroupPrefix: conf.KafkaConfig.GroupPrefix,
			Timeout:     time.Duration(conf.KafkaConfig.Timeout) * time.Second,
		},
	}
	if redisCache != nil {
		cache = redisCache
		chatCfg.Cache = redisCache
		chatCfg.RedisClient = redisCache.Client()
		defer func() { _ = redisCache.Close() }()
		zap.L().Info("Redis 初始化成功")
	} else {
		zap.L().Info("Redis 未配置，会话列表缓存已关闭")
	}

	// 6. 初始化 Service 层 (依赖注入)
	svc := service.NewServices(repos, cache, conf.StaticFilePath)

	// 7. 初始化 ChatServer 与网关
	chatServer, err := chat.NewChatServer(chatCfg)
	if err != nil {
		zap.L().Fatal("ChatServer 初始化失败", zap.Error(err))
	}
	if err := chatServer.Start(ctx); err != nil {
		zap.L().Fatal("ChatServer 启动失败", zap.Error(err))
	}
	gateway := chat.NewGateway(chatServer, svc.Message, chat.GatewayConfig{
		SendBuffer:     conf.WsConfig.SendBuffer,
		PongWait:       time.Duration(conf.WsConfig.PongWait) * time.Second,
		TypingDebounce: time.Duration(conf.WsConfig.TypingDebounce) * time.Millisecond,
	})

	// 8. 初始化 HTTP 服务器
	if err := handler.InitTrans("en"); err != nil {
		zap.L().Fatal("init validator translator failed", zap.Error(err))
	}
	handlers := handler.NewHandlers(svc, gateway)
	engine := https_server.Init(conf, router.NewRouter(handlers, svc.Auth))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}
	go func() {
		zap.L().Info("server listening", zap.String("addr", srv.Addr))
		var err error
		if conf.MainConfig.CertFile != "" && conf.MainConfig.KeyFile != "" {
			err = srv.ListenAndServeTLS(conf.MainConfig.CertFile, conf.MainConfig.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 等待信号
	<-ctx.Done()
	zap.L().Info("关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("http shutdown failed", zap.Error(err))
	}
	// websocket 连接已被劫持，Shutdown 不会关闭它们
	if err := chatServer.Close(); err != nil {
		zap.L().Error("chat server close failed", zap.Error(err))
	}

	zap.L().Info("服务器已关闭")
}
