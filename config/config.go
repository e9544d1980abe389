package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Data       DataConfig       `yaml:"data"`
	Generation GenerationConfig `yaml:"generation"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

// GenerationConfig 副本摆放与运行调度参数
type GenerationConfig struct {
	StartX  float64       `yaml:"start_x"`
	StartY  float64       `yaml:"start_y"`
	Spacing float64       `yaml:"spacing"`
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 不读取文件与环境变量的默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Generation: GenerationConfig{
			Spacing: 20,
			Workers: 1,
			Timeout: 10 * time.Minute,
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("配置文件解析失败，使用默认配置: path=%s, err=%v", configPath, err)
		}
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}

	if spacing := os.Getenv("GENERATION_SPACING"); spacing != "" {
		if v, err := strconv.ParseFloat(spacing, 64); err == nil {
			config.Generation.Spacing = v
		} else {
			klog.Warningf("GENERATION_SPACING 无效: %q", spacing)
		}
	}
	if workers := os.Getenv("GENERATION_WORKERS"); workers != "" {
		if v, err := strconv.Atoi(workers); err == nil && v > 0 {
			config.Generation.Workers = v
		} else {
			klog.Warningf("GENERATION_WORKERS 无效: %q", workers)
		}
	}
	if config.Generation.Workers <= 0 {
		config.Generation.Workers = 1
	}
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
