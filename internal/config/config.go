package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`      // 服务器配置
	Postgres    PostgresConfig    `mapstructure:"postgres"`    // PostgreSQL配置
	Redis       RedisConfig       `mapstructure:"redis"`       // Redis配置（技能点缓存）
	Steam       SteamConfig       `mapstructure:"steam"`       // Steam票据认证配置
	MusicBrainz MusicBrainzConfig `mapstructure:"musicbrainz"` // MusicBrainz元数据配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`     // host:port
	Password string `mapstructure:"password"` // 密码，可为空
	DB       int    `mapstructure:"db"`       // 库编号
}

// SteamConfig Steam Web API 配置
type SteamConfig struct {
	APIKey  string `mapstructure:"api_key"` // Steam Web API Key
	AppID   uint32 `mapstructure:"app_id"`  // 游戏AppID（票据校验用）
	Timeout int    `mapstructure:"timeout"` // 请求超时（秒）
	Proxy   string `mapstructure:"proxy"`   // 代理地址，可为空
}

// MusicBrainzConfig MusicBrainz REST API 配置
type MusicBrainzConfig struct {
	BaseURL   string `mapstructure:"base_url"`   // API基础地址
	UserAgent string `mapstructure:"user_agent"` // MusicBrainz要求的UA标识
	Timeout   int    `mapstructure:"timeout"`    // 请求超时（秒）
	Proxy     string `mapstructure:"proxy"`      // 代理地址，可为空
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("STEAM_API_KEY"); v != "" {
		cfg.Steam.APIKey = v
	}
	if v := os.Getenv("STEAM_PROXY"); v != "" {
		cfg.Steam.Proxy = v
	}
}
