package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	httpadapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/in/http"
	kafkaadapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/out/kafka"
	"github.com/JoeShih716/go-office-ledger/pkg/auth"
	"github.com/JoeShih716/go-office-ledger/pkg/logger"
	"github.com/JoeShih716/go-office-ledger/pkg/mysql"
	"github.com/JoeShih716/go-office-ledger/pkg/redislock"
)

// DefaultPath 預設設定檔位置，可用 CONFIG_PATH 覆寫
const DefaultPath = "config/config.yaml"

// StoreType 帳本與資源的儲存方式
type StoreType string

const (
	StoreMySQL  StoreType = "mysql"
	StoreMemory StoreType = "memory"
)

// GRPCConfig gRPC 伺服器設定
type GRPCConfig struct {
	Addr       string `yaml:"addr"`
	Reflection bool   `yaml:"reflection"`
}

// BootstrapAdmin 啟動時若不存在則建立的管理員帳號
type BootstrapAdmin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Enabled 有 email 與密碼才建立
func (b BootstrapAdmin) Enabled() bool {
	return strings.TrimSpace(b.Email) != "" && b.Password != ""
}

type Config struct {
	Log             logger.Config       `yaml:"log"`
	Store           StoreType           `yaml:"store"`
	WALPath         string              `yaml:"wal_path"`
	EmployeeWALPath string              `yaml:"employee_wal_path"`
	MySQL           mysql.Config        `yaml:"mysql"`
	Redis           redislock.Config    `yaml:"redis"`
	Kafka           kafkaadapter.Config `yaml:"kafka"`
	HTTP            httpadapter.Config  `yaml:"http"`
	GRPC            GRPCConfig          `yaml:"grpc"`
	Auth            auth.Config         `yaml:"auth"`
	Admin           BootstrapAdmin      `yaml:"bootstrap_admin"`
}

// Load 讀取 .env (若存在) 與 YAML，YAML 中的 ${VAR} 以環境變數展開
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 展開環境變數、解析 YAML 並補全預設值
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store == "" {
		c.Store = StoreMySQL
	}
	if c.WALPath == "" {
		c.WALPath = "wal.log"
	}
	if c.EmployeeWALPath == "" {
		c.EmployeeWALPath = "employees.wal.log"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	c.MySQL.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.HTTP.ApplyDefaults()
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMySQL, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}
