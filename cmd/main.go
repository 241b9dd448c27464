package main

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/config"
	"github.com/chatapp/web-server/internal/consumer"
	"github.com/chatapp/web-server/internal/handlers"
	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/routers"
	"github.com/chatapp/web-server/internal/services"
	"github.com/chatapp/web-server/internal/storage"
	"github.com/chatapp/web-server/internal/utils"
	"github.com/chatapp/web-server/internal/ws"
	"github.com/chatapp/web-server/pkg/logger"
	"github.com/chatapp/web-server/pkg/mq"
	"github.com/chatapp/web-server/pkg/ratelimit"
	"github.com/chatapp/web-server/pkg/token"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer appLogger.Close()
	zlog := appLogger.Logger

	// 初始化 Worker Pool (协程池)
	// 用于异步处理请求，防止高并发下 Goroutine 暴涨
	pool := utils.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, zlog)
	pool.Start()
	defer pool.Stop()

	// 初始化 PostgreSQL
	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns,
		time.Duration(cfg.Postgres.AcquireTimeout)*time.Second)
	if err != nil {
		zlog.Fatal("postgres 初始化失败", zap.Error(err))
	}
	if err := storage.Migrate(postgres); err != nil {
		zlog.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 初始化 Redis（不可用时降级：token 校验回源数据库，序列号走数据库分配）
	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		zlog.Warn("redis 初始化失败，以降级模式运行", zap.Error(err))
		redisClient = nil
	}

	// 初始化仓储层
	userRepo := repositories.NewUserRepository(postgres)
	roomRepo := repositories.NewRoomRepository(postgres)
	memberRepo := repositories.NewMemberRepository(postgres)
	inviteRepo := repositories.NewInviteRepository(postgres)
	messageRepo := repositories.NewMessageRepository(postgres)
	tokenRepo := repositories.NewTokenRepository(postgres, redisClient)

	// 初始化 Kafka Producer
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		zlog.Warn("Kafka 生产者初始化失败，消息改为本地直接广播", zap.Error(err))
		kafkaProducer = nil
	} else {
		defer kafkaProducer.Close()
	}

	// 初始化 WebSocket Hub
	hub := ws.NewHub()
	go hub.Run()

	var seq *storage.Sequencer
	if redisClient != nil {
		seq = storage.NewSequencer(redisClient)
	}

	// 初始化服务层
	tm := token.NewTokenManager(cfg.Auth.Secret, cfg.Auth.AccessTokenMinutes, cfg.Auth.RefreshTokenHours)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, tokenRepo, tm)
	roomService := services.NewRoomService(roomRepo, memberRepo, messageRepo, userRepo)
	memberService := services.NewMemberService(roomRepo, memberRepo)
	inviteService := services.NewInviteService(inviteRepo, memberRepo, roomRepo, userRepo)

	var producer services.Producer
	if kafkaProducer != nil {
		producer = kafkaProducer
	}
	messageService := services.NewMessageService(memberRepo, messageRepo, seq, producer, hub, zlog)

	// 初始化 Kafka Consumer (如果 Kafka 可用)
	if kafkaProducer != nil {
		msgConsumer := consumer.NewMessageConsumer(messageService, zlog)
		if err := consumer.StartConsumer(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, msgConsumer, zlog); err != nil {
			zlog.Warn("Kafka 消费者启动失败", zap.Error(err))
		}
	}

	// 初始化限流器
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled && redisClient != nil {
		limiter = ratelimit.NewTokenBucketLimiter(redisClient, zlog, true)
	}

	// 初始化处理器
	authHandler := handlers.NewAuthHandler(authService, zlog)
	userHandler := handlers.NewUserHandler(userService, zlog)
	roomHandler := handlers.NewRoomHandler(roomService, memberService, zlog)
	inviteHandler := handlers.NewInviteHandler(inviteService, zlog)
	messageHandler := handlers.NewMessageHandler(messageService, zlog)

	// 配置并创建 Gin 引擎
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())

	// 设置路由
	routers.SetupRoutes(r,
		cfg,
		zlog,
		authHandler,
		userHandler,
		roomHandler,
		inviteHandler,
		messageHandler,
		authService,
		messageService,
		memberService,
		hub,
		limiter,
		pool,
	)

	// 启动服务器
	zlog.Info("正在启动服务器", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.FormatInt(int64(cfg.Server.Port), 10)); err != nil {
		zlog.Fatal("启动服务器失败", zap.Error(err))
	}
}
