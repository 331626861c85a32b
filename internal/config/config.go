// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件中（YAML 中不存储任何密码）。
//	DB_PASSWORD、JWT_SECRET、ADMIN_EMAIL、ADMIN_PASSWORD、OWNER_EMAIL、
//	GEMINI_API_KEY、REDIS_PASSWORD、MINIO_ROOT_USER、MINIO_ROOT_PASSWORD
//	均只从环境变量读取。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"` // 远端主库（可选）
	Fallback FallbackConfig `yaml:"fallback"` // 本地回退库
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 远端 PostgreSQL 配置
// Host 为空表示未配置远端库，应用以纯本地模式运行
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// FallbackConfig 本地 SQLite 回退库配置
type FallbackConfig struct {
	DataDir string `yaml:"data_dir"` // 数据目录（SQLite 文件 + 会话文件）
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`       // 只从 REDIS_PASSWORD 环境变量读取
	Enabled  bool   `yaml:"enabled"` // false 时会话落盘到本地文件
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000；为空时凭证图片内联存库
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// GeminiConfig AI 分析服务配置
type GeminiConfig struct {
	APIKey string `yaml:"-"` // 只从 GEMINI_API_KEY 环境变量读取
	Model  string `yaml:"model"`
}

// AuthConfig 认证配置
// 注意：JWTSecret/AdminEmail/AdminPassword/OwnerEmail 只从环境变量读取
type AuthConfig struct {
	JWTSecret      string `yaml:"-"`                // 只从 JWT_SECRET 环境变量读取
	AccessTokenTTL string `yaml:"access_token_ttl"` // 例如 "168h"
	AdminEmail     string `yaml:"-"`                // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword  string `yaml:"-"`                // 只从 ADMIN_PASSWORD 环境变量读取
	OwnerEmail     string `yaml:"-"`                // 只从 OWNER_EMAIL 环境变量读取
}

// PaymentConfig Multicaixa Express 收款信息
type PaymentConfig struct {
	Entidade   string `yaml:"entidade"`
	Referencia string `yaml:"referencia"`
	Valor      string `yaml:"valor"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	APIPort        string
	DatabaseURL    string // 远端 PostgreSQL；为空表示纯本地模式
	LocalDBPath    string // SQLite 回退库文件路径
	DataDir        string
	RedisURL       string // 为空表示使用本地文件会话存储
	MinIO          MinIOConfig
	Gemini         GeminiConfig
	JWTSecret      string
	AccessTokenTTL time.Duration
	AdminEmail     string
	AdminPassword  string
	OwnerEmail     string
	Payment        PaymentConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	yamlCfg.Database.Password = getEnv("DB_PASSWORD", "")
	yamlCfg.Redis.Password = getEnv("REDIS_PASSWORD", "")

	cfg := &Config{
		Env:         env,
		APIPort:     yamlCfg.Server.Port,
		DatabaseURL: buildDatabaseURL(yamlCfg.Database),
		LocalDBPath: filepath.Join(yamlCfg.Fallback.DataDir, "victoria-bet.db"),
		DataDir:     yamlCfg.Fallback.DataDir,
		RedisURL:    buildRedisURL(yamlCfg.Redis),
		MinIO: MinIOConfig{
			Endpoint:  yamlCfg.MinIO.Endpoint,
			AccessKey: getEnv("MINIO_ROOT_USER", ""),
			SecretKey: getEnv("MINIO_ROOT_PASSWORD", ""),
			UseSSL:    yamlCfg.MinIO.UseSSL,
			Bucket:    yamlCfg.MinIO.Bucket,
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  yamlCfg.Gemini.Model,
		},
		JWTSecret:      getEnv("JWT_SECRET", "dev_jwt_secret_change_me"),
		AccessTokenTTL: parseDuration(yamlCfg.Auth.AccessTokenTTL, 168*time.Hour),
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@victoriabet.ao"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin123"),
		OwnerEmail:     getEnv("OWNER_EMAIL", "cadisexy07@gmail.com"),
		Payment:        yamlCfg.Payment,
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Port: 5432, User: "victoria", Name: "victoria_bet", SSLMode: "require"},
		Fallback: FallbackConfig{DataDir: "./data"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		MinIO:    MinIOConfig{Bucket: "victoria-bet"},
		Gemini:   GeminiConfig{Model: "gemini-3-flash-preview"},
		Auth:     AuthConfig{AccessTokenTTL: "168h"},
		Payment: PaymentConfig{
			Entidade:   "00940",
			Referencia: "942 117 828",
			Valor:      "9.900 Kz",
		},
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildDatabaseURL 构建 PostgreSQL 连接字符串
// Host 为空表示未配置远端库
func buildDatabaseURL(db DatabaseConfig) string {
	if db.Host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.Name, db.SSLMode)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(r RedisConfig) string {
	if !r.Enabled {
		return ""
	}
	if r.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", r.Password, r.Host, r.Port, r.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", r.Host, r.Port, r.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// HasRemoteDB 是否配置了远端主库
func (c *Config) HasRemoteDB() bool {
	return c.DatabaseURL != ""
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	db := c.DatabaseURL
	if db == "" {
		db = "(local only)"
	}
	redis := c.RedisURL
	if redis == "" {
		redis = "(local file)"
	}
	return fmt.Sprintf("Config{Env: %s, DB: %s, Redis: %s, MinIO: %s}",
		c.Env, maskPassword(db), maskPassword(redis), c.MinIO.Endpoint)
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
