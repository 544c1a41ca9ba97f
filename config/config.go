// Package config 从环境变量加载服务端与客户端配置 (方便 Docker 部署)
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server 服务端配置
type Server struct {
	Addr     string `env:"MAP_ADDR" envDefault:":3001"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// 数据库: postgres (默认) 或 sqlite
	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"1234"`
	DBName     string `env:"DB_NAME" envDefault:"drone_db"`
	DBTimeZone string `env:"DB_TIMEZONE" envDefault:"UTC"`
	DBPath     string `env:"DB_PATH" envDefault:"drone_map.db"`

	DBMaxRetries int           `env:"DB_MAX_RETRIES" envDefault:"30"`
	DBRetryDelay time.Duration `env:"DB_RETRY_DELAY" envDefault:"2s"`

	// AuthSecret 为空时不启用认证
	AuthSecret        string        `env:"MAP_AUTH_SECRET"`
	AdminUser         string        `env:"MAP_ADMIN_USER" envDefault:"admin"`
	AdminPasswordHash string        `env:"MAP_ADMIN_PASSWORD_HASH"`
	TokenTTL          time.Duration `env:"MAP_TOKEN_TTL" envDefault:"24h"`

	ShutdownTimeout time.Duration `env:"MAP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Client mapctl 客户端配置
type Client struct {
	ServerURL      string        `env:"MAP_SERVER_URL" envDefault:"http://localhost:3001"`
	SessionFile    string        `env:"MAP_SESSION_FILE" envDefault:".mapctl-session.yaml"`
	Token          string        `env:"MAP_TOKEN"`
	RequestTimeout time.Duration `env:"MAP_REQUEST_TIMEOUT" envDefault:"10s"`
	QueueSize      int           `env:"MAP_QUEUE_SIZE" envDefault:"64"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// LoadServer 读取服务端配置
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadClient 读取客户端配置
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate 检查服务端配置
func (c Server) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if c.AuthEnabled() && c.AdminPasswordHash == "" {
		return fmt.Errorf("MAP_ADMIN_PASSWORD_HASH is required when MAP_AUTH_SECRET is set")
	}
	return nil
}

// AuthEnabled 是否启用 JWT 认证
func (c Server) AuthEnabled() bool { return c.AuthSecret != "" }

// PostgresDSN 拼接 PostgreSQL 连接串
func (c Server) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}

// ParseLogLevel 把 debug/info/warn/error 转为 slog 级别, 未知值按 info 处理
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
