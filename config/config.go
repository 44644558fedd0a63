package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Export    ExportConfig    `mapstructure:"export"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 数据库配置
// Driver 为 sqlite 时只使用 Path；为 mysql 时使用 Host/Port 等连接参数
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	LogMode  bool   `mapstructure:"log_mode"`
}

// StorageConfig 图片附件存储配置
type StorageConfig struct {
	ImageDir string `mapstructure:"image_dir"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	Dir      string `mapstructure:"dir"`
	Currency string `mapstructure:"currency"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	ExportPerMinute int `mapstructure:"export_per_minute"`
}

// PortfolioConfig 持仓估值配置
type PortfolioConfig struct {
	LookupConcurrency int `mapstructure:"lookup_concurrency"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var (
	// GlobalConfig 全局配置实例，仅用于错误信息脱敏等横切逻辑
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 (MONEYFLOW_*, 含 .env) > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}
	log.Println("已加载内置默认配置")

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("警告: 无法读取指定配置文件 %s: %v", configPath, err)
		} else {
			log.Printf("已合并外部配置文件: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("$HOME/.moneyflow")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("警告: 合并外部配置失败: %v", err)
			} else {
				log.Printf("已合并外部配置文件: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. .env 文件写入进程环境（不覆盖已存在的变量），随后由 AutomaticEnv 读取
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("警告: 读取 .env 失败: %v", err)
		}
	}
	v.SetEnvPrefix("MONEYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()

	GlobalConfig = &cfg

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Export.Currency == "" {
		c.Export.Currency = "USD"
	}
	if c.RateLimit.ExportPerMinute <= 0 {
		c.RateLimit.ExportPerMinute = 10
	}
	if c.Portfolio.LookupConcurrency <= 0 {
		c.Portfolio.LookupConcurrency = 8
	}
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	log.Printf("当前配置:")
	log.Printf("  服务器: %s (模式: %s)", cfg.Server.Port, cfg.Server.Mode)
	switch cfg.Database.Driver {
	case DriverMySQL:
		log.Printf("  数据库: mysql %s@%s:%s/%s",
			cfg.Database.Username,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.DBName)
	default:
		log.Printf("  数据库: sqlite %s", cfg.Database.Path)
	}
	log.Printf("  图片目录: %s", cfg.Storage.ImageDir)
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
