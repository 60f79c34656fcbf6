package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"aura-go/internal/config"
	"aura-go/internal/events"
	"aura-go/internal/handlers/apiserver"
	appKafka "aura-go/internal/kafka"
	"aura-go/internal/logging"
	"aura-go/internal/media"
	appRedis "aura-go/internal/redis"
	"aura-go/internal/services"
	"aura-go/internal/storage"
	"aura-go/internal/sweeper"
)

const sweepTimeout = 2 * time.Minute

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("AURA_CONFIG"))
	if err != nil {
		logrus.Fatalf("无法加载配置: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat == "json")
	logrus.WithField("version", cfg.AppVersion).Info("API 服务器配置加载成功。")

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logrus.Fatalf("无法初始化数据库: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logrus.Fatalf("数据库表迁移失败: %v", err)
	}

	// 3. 初始化 Redis Client
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	redisClient, err := appRedis.NewClient(rootCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logrus.Fatalf("无法连接到 Redis: %v", err)
	}
	defer redisClient.Close()
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	leaderboardCache := appRedis.NewLeaderboardCache(redisClient, cfg.Leaderboard.CacheTTL)

	// 4. 初始化事件发布 (Kafka)
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			logrus.Fatalf("无法创建 Kafka 生产者: %v", err)
		}
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic)
		logrus.WithField("topic", cfg.Kafka.EventsTopic).Info("Kafka 事件发布已启用")
	} else {
		logrus.Warn("Kafka 已禁用，事件不会被发布")
	}

	// 5. 初始化头像存储
	storageService, err := media.NewStorageService(rootCtx, cfg.Storage)
	if err != nil {
		logrus.Fatalf("无法初始化存储服务: %v", err)
	}

	// 6. 初始化 Services
	repos := storage.NewGormRepositories(db)
	tx := storage.NewGormTransactor(db)

	authService := services.NewAuthService(repos.Profiles, tokenBlacklist, cfg.Auth)
	profileService := services.NewProfileService(repos.Profiles, storageService, leaderboardCache, cfg.Storage, cfg.Leaderboard)
	friendService := services.NewFriendService(repos, tx, publisher)
	proposalService := services.NewProposalService(repos, tx, publisher, leaderboardCache, cfg.Proposals)

	// 7. 定时结算待处理提案
	sweepScheduler, err := sweeper.New(proposalService, cfg.Proposals.SweepSchedule, sweepTimeout)
	if err != nil {
		logrus.Fatalf("无法创建提案结算任务: %v", err)
	}
	sweepScheduler.Start(rootCtx)

	// 8. 设置 HTTP 路由
	r := apiserver.NewRouter(apiserver.Deps{
		Auth:      authService,
		Profiles:  profileService,
		Friends:   friendService,
		Proposals: proposalService,
		Blacklist: tokenBlacklist,
		AuthCfg:   cfg.Auth,
		Storage:   cfg.Storage,
	})

	// 本地存储时提供上传文件的静态访问
	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(cfg.Storage.BaseURL, "/") + "/"
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.Storage.LocalPath))))
		logrus.Infof("提供静态文件服务于 %s -> %s", staticPath, cfg.Storage.LocalPath)
	}

	// 9. CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.CORS(corsOptions...)(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("API 服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	// 10. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("收到关闭信号，正在关闭 API 服务器...")

	sweepScheduler.Stop()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logrus.Errorf("API 服务器强制关闭: %v", err)
	}
	logrus.Info("API 服务器已成功关闭")
}
