package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"aura-go/internal/auth"
	"aura-go/internal/config"
	"aura-go/internal/handlers/notifyserver"
	appKafka "aura-go/internal/kafka"
	kafkahandlers "aura-go/internal/kafka/handlers"
	"aura-go/internal/logging"
	"aura-go/internal/metrics"
	appRedis "aura-go/internal/redis"
	"aura-go/internal/websocket"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("AURA_CONFIG"))
	if err != nil {
		logrus.Fatalf("无法加载配置: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat == "json")
	if !cfg.Kafka.Enabled {
		logrus.Fatal("通知服务器依赖 Kafka，但 KAFKA.ENABLED 为 false")
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// 2. Redis 黑名单，已登出的 token 不能再建立连接
	var blacklist auth.TokenBlacklist
	redisClient, err := appRedis.NewClient(rootCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logrus.WithError(err).Warn("无法连接到 Redis，跳过 token 黑名单检查")
	} else {
		defer redisClient.Close()
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient)
	}

	// 3. 初始化 WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(rootCtx)

	// 4. Kafka: events -> notifications (共享消费组), notifications -> hub (每个实例独立消费组)
	producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		logrus.Fatalf("无法创建 Kafka 生产者: %v", err)
	}
	defer producer.Close()

	fanoutConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		logrus.Fatalf("无法创建事件 Kafka 消费者: %v", err)
	}
	defer fanoutConsumer.Close()

	deliveryConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		logrus.Fatalf("无法创建通知 Kafka 消费者: %v", err)
	}
	defer deliveryConsumer.Close()

	fanout := kafkahandlers.NewEventFanoutHandler(producer, cfg.Kafka.NotificationsTopic)
	delivery := kafkahandlers.NewNotificationHandler(hub)
	// every instance must see every notification, its own users may be connected here
	deliveryGroup := fmt.Sprintf("%s-delivery-%s", cfg.Kafka.ConsumerGroup, uuid.NewString())

	var wg sync.WaitGroup
	consume := func(consumer appKafka.MessageConsumer, topic, group string, handler appKafka.MessageHandler) {
		defer wg.Done()
		log := logrus.WithFields(logrus.Fields{"topic": topic, "group": group})
		log.Info("Kafka 消费者启动")
		if err := consumer.Consume(rootCtx, []string{topic}, group, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Kafka 消费者错误")
		}
		log.Info("Kafka 消费者已停止")
	}
	wg.Add(2)
	go consume(fanoutConsumer, cfg.Kafka.EventsTopic, cfg.Kafka.ConsumerGroup, fanout.Handle)
	go consume(deliveryConsumer, cfg.Kafka.NotificationsTopic, deliveryGroup, delivery.Handle)

	// 5. HTTP 路由
	wsHandler := notifyserver.NewWebSocketHandler(hub, blacklist, cfg)
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logrus.Infof("通知服务器启动于 %s, WebSocket 路径: %s", serverAddr, cfg.Server.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("通知服务器启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("通知服务器准备关闭...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logrus.Errorf("通知服务器关闭失败: %v", err)
	}

	cancelRoot()
	wg.Wait()
	logrus.Info("通知服务器已优雅关闭。")
}
