package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIServerConfig holds the REST API server settings.
type APIServerConfig struct {
	Host string     `mapstructure:"HOST"`
	Port string     `mapstructure:"PORT"`
	CORS CORSConfig `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName     string            `mapstructure:"APP_NAME"`
	AppVersion  string            `mapstructure:"APP_VERSION"`
	LogLevel    string            `mapstructure:"LOG_LEVEL"`
	LogFormat   string            `mapstructure:"LOG_FORMAT"` // "text" or "json"
	Server      ServerConfig      `mapstructure:"SERVER"` // notify server
	APIServer   APIServerConfig   `mapstructure:"API_SERVER"`
	Kafka       KafkaConfig       `mapstructure:"KAFKA"`
	Database    DatabaseConfig    `mapstructure:"DATABASE"`
	Storage     StorageConfig     `mapstructure:"STORAGE"`
	Auth        AuthConfig        `mapstructure:"AUTH"`
	WebSocket   WebSocketConfig   `mapstructure:"WEBSOCKET"`
	Redis       RedisConfig       `mapstructure:"REDIS"`
	Proposals   ProposalsConfig   `mapstructure:"PROPOSALS"`
	Leaderboard LeaderboardConfig `mapstructure:"LEADERBOARD"`
}

// ServerConfig holds configuration for the notification (WebSocket) server.
type ServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	WebSocketPath  string        `mapstructure:"WEBSOCKET_PATH"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Brokers            []string `mapstructure:"BROKERS"`
	ClientID           string   `mapstructure:"CLIENT_ID"`
	EventsTopic        string   `mapstructure:"EVENTS_TOPIC"`        // domain events emitted by the API server
	NotificationsTopic string   `mapstructure:"NOTIFICATIONS_TOPIC"` // per-user frames pushed over WebSocket
	ConsumerGroup      string   `mapstructure:"CONSUMER_GROUP"`
	Protocol           string   `mapstructure:"PROTOCOL"`
	Enabled            bool     `mapstructure:"ENABLED"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
}

// DSN builds a libpq style connection string.
func (c DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(c.Port),
		"user=" + c.User,
		"dbname=" + c.DBName,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	parts = append(parts, "sslmode="+c.SSLMode)
	return strings.Join(parts, " ")
}

// StorageConfig holds configuration for avatar storage.
type StorageConfig struct {
	Type          string      `mapstructure:"TYPE"` // "local" or "minio"
	LocalPath     string      `mapstructure:"LOCAL_PATH"`
	BaseURL       string      `mapstructure:"BASE_URL"`
	MaxFileSizeMB int64       `mapstructure:"MAX_FILE_SIZE_MB"`
	MinIO         MinIOConfig `mapstructure:"MINIO"`
}

// MinIOConfig holds configuration for MinIO / S3 compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"ENDPOINT"`
	BucketName      string `mapstructure:"BUCKET_NAME"`
	Region          string `mapstructure:"REGION"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY"`
	UseSSL          bool   `mapstructure:"USE_SSL"`
	PublicURL       string `mapstructure:"PUBLIC_URL"`
}

// AuthConfig holds configuration for authentication (JWT).
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
}

// ProposalsConfig controls when pending proposals are resolved by the sweeper.
type ProposalsConfig struct {
	MinVotes      int           `mapstructure:"MIN_VOTES"`
	VotingWindow  time.Duration `mapstructure:"VOTING_WINDOW"`
	ExpireAfter   time.Duration `mapstructure:"EXPIRE_AFTER"`
	SweepSchedule string        `mapstructure:"SWEEP_SCHEDULE"` // cron spec, empty disables the sweeper
}

// LeaderboardConfig holds the global leaderboard settings.
type LeaderboardConfig struct {
	GlobalLimit int           `mapstructure:"GLOBAL_LIMIT"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "Aura-Go")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	// Notify server
	v.SetDefault("SERVER.HOST", "0.0.0.0")
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.WEBSOCKET_PATH", "/ws/notifications")
	v.SetDefault("SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.MAX_HEADER_BYTES", 1<<20)

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "aura-go")
	v.SetDefault("KAFKA.EVENTS_TOPIC", "aura-events")
	v.SetDefault("KAFKA.NOTIFICATIONS_TOPIC", "aura-notifications")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "aura-notify-group")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")
	v.SetDefault("KAFKA.ENABLED", true)

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "aura_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")

	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./uploads")
	v.SetDefault("STORAGE.BASE_URL", "/uploads")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 1) // avatars only
	v.SetDefault("STORAGE.MINIO.BUCKET_NAME", "avatars")
	v.SetDefault("STORAGE.MINIO.REGION", "us-east-1")

	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 512)

	v.SetDefault("PROPOSALS.MIN_VOTES", 3)
	v.SetDefault("PROPOSALS.VOTING_WINDOW", 24*time.Hour)
	v.SetDefault("PROPOSALS.EXPIRE_AFTER", 7*24*time.Hour)
	v.SetDefault("PROPOSALS.SWEEP_SCHEDULE", "@every 5m")

	v.SetDefault("LEADERBOARD.GLOBAL_LIMIT", 100)
	v.SetDefault("LEADERBOARD.CACHE_TTL", time.Minute)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// SERVER_PORT overrides SERVER.PORT, API_SERVER_CORS_MAX_AGE overrides API_SERVER.CORS.MAX_AGE
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// no config file, defaults and env are enough
	}

	err = v.Unmarshal(&config)
	return
}
