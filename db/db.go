package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"drone-map/config"
	"drone-map/model"
)

// Open 按配置连接数据库并自动迁移表结构
// 带重试 (Docker 启动时数据库可能还没准备好)
func Open(cfg config.Server) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	retries := cfg.DBMaxRetries
	if retries < 1 {
		retries = 1
	}

	var gdb *gorm.DB
	for i := 0; i < retries; i++ {
		gdb, err = gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err == nil {
			break
		}
		slog.Warn("等待数据库就绪", "attempt", i+1, "max", retries, "err", err)
		time.Sleep(cfg.DBRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	slog.Info("数据库连接并初始化成功", "driver", cfg.DBDriver)
	return gdb, nil
}

// Migrate 自动迁移 points / lines 两张表
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&model.Point{}, &model.Line{}); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// Close 关闭底层连接池
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg config.Server) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(cfg.PostgresDSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DBPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}
