// Package mysql 负责建立数据库连接、自动迁移表结构、初始化 Repository 层
// 驱动默认 MySQL，也支持 postgres 与 sqlite（本地开发）
package mysql

import (
	"fmt"
	"time"

	"market_chat_server/internal/config"
	"market_chat_server/internal/dao/mysql/repository"
	"market_chat_server/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 按配置选择驱动并打开连接
func Open(cfg *config.MysqlConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			// user:password@tcp(host:port)/database?params
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DatabaseName)
		}
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DatabaseName)
		}
		dialector = postgres.Open(dsn)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.DatabaseName + ".db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite 单写者，限制为一个连接避免 database is locked
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate 自动迁移消息模块的表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserInfo{}, // 用户信息表
		&model.Message{},  // 消息表
		&model.Chat{},     // 会话摘要表
	)
}

// Init 初始化数据库连接并返回 Repository 层实例
func Init(cfg *config.MysqlConfig) (*repository.Repositories, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return repository.NewRepositories(db), nil
}
