// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找，.env 与环境变量可覆盖文件中的值
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
	"github.com/joho/godotenv"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName     string `toml:"appName"`     // 应用名称，用于日志标识等
	Host        string `toml:"host"`        // 服务器监听地址，如 "0.0.0.0"
	Port        int    `toml:"port"`        // 服务器监听端口，如 8000
	Mode        string `toml:"mode"`        // debug / release
	TLSRedirect bool   `toml:"tlsRedirect"` // 是否启用 https 重定向中间件
	CertFile    string `toml:"certFile"`
	KeyFile     string `toml:"keyFile"`
}

// MysqlConfig 关系型数据库连接配置
// Driver 支持 mysql / postgres / sqlite，DSN 非空时直接使用
type MysqlConfig struct {
	Driver       string `toml:"driver"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`         // 数据库服务器地址
	Port         int    `toml:"port"`         // 端口
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
	AutoMigrate  bool   `toml:"autoMigrate"`
}

// RedisConfig Redis 连接配置，Host 为空时不启用缓存
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 实时事件总线配置
type KafkaConfig struct {
	MessageMode string `toml:"messageMode"` // 消息模式："channel"、"redis" 或 "kafka"
	HostPort    string `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	ChatTopic   string `toml:"chatTopic"`   // 聊天事件主题
	GroupPrefix string `toml:"groupPrefix"` // 消费组前缀，每个实例追加唯一后缀
	Timeout     int    `toml:"timeout"`     // 超时时间（秒）
}

// StaticSrcConfig 静态资源路径配置
type StaticSrcConfig struct {
	StaticAvatarPath string `toml:"staticAvatarPath"` // 头像文件存储路径
	StaticFilePath   string `toml:"staticFilePath"`   // 聊天附件存储路径
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	Issuer            string `toml:"issuer"`
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// WsConfig websocket 网关配置
type WsConfig struct {
	SendBuffer     int `toml:"sendBuffer"`     // 每个连接的发送队列长度
	PongWait       int `toml:"pongWait"`       // 秒
	TypingDebounce int `toml:"typingDebounce"` // 毫秒，同一接收方的 typing 事件最小间隔
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	MysqlConfig     `toml:"mysqlConfig"`     // 数据库配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // 事件总线配置
	StaticSrcConfig `toml:"staticSrcConfig"` // 静态资源配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	WsConfig        `toml:"wsConfig"`
}

var (
	config     *Config
	configOnce sync.Once
)

// Default 返回带默认值的配置，文件中缺失的字段保持这些值
func Default() *Config {
	return &Config{
		MainConfig:  MainConfig{AppName: "market_chat_server", Host: "0.0.0.0", Port: 8000, Mode: "debug"},
		MysqlConfig: MysqlConfig{Driver: "mysql", Host: "127.0.0.1", Port: 3306, User: "root", DatabaseName: "market_chat", AutoMigrate: true},
		RedisConfig: RedisConfig{Port: 6379},
		LogConfig:   LogConfig{LogPath: "./logs", FileName: "market_chat.log", MaxSize: 100, MaxBackups: 7, MaxAge: 30, Level: "info"},
		KafkaConfig: KafkaConfig{MessageMode: "channel", HostPort: "127.0.0.1:9092", ChatTopic: "chat_events", GroupPrefix: "market_chat", Timeout: 1},
		StaticSrcConfig: StaticSrcConfig{
			StaticAvatarPath: "./static/avatars",
			StaticFilePath:   "./static/files",
		},
		JWTConfig: JWTConfig{Issuer: "market_chat", AccessTokenExpiry: 60 * 24},
		WsConfig:  WsConfig{SendBuffer: 100, PongWait: 60, TypingDebounce: 300},
	}
}

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig(cfg *Config) error {
	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// ApplyEnv 读取 .env（若存在）后用环境变量覆盖配置
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.MainConfig.Mode, "CHAT_MODE")
	setInt(&cfg.MainConfig.Port, "CHAT_PORT")
	setString(&cfg.MysqlConfig.Driver, "CHAT_DB_DRIVER")
	setString(&cfg.MysqlConfig.DSN, "CHAT_MYSQL_DSN")
	setString(&cfg.MysqlConfig.Password, "CHAT_MYSQL_PASSWORD")
	setString(&cfg.RedisConfig.Host, "CHAT_REDIS_HOST")
	setInt(&cfg.RedisConfig.Port, "CHAT_REDIS_PORT")
	setString(&cfg.RedisConfig.Password, "CHAT_REDIS_PASSWORD")
	setString(&cfg.KafkaConfig.MessageMode, "CHAT_MESSAGE_MODE")
	setString(&cfg.KafkaConfig.HostPort, "CHAT_KAFKA_HOSTPORT")
	setString(&cfg.JWTConfig.Secret, "CHAT_JWT_SECRET")
	setString(&cfg.LogConfig.Level, "CHAT_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到文件时使用默认值
func GetConfig() *Config {
	configOnce.Do(func() {
		config = Default()
		if err := LoadConfig(config); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v, using defaults\n", err)
		}
		ApplyEnv(config)
	})
	return config
}
