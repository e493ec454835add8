package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/common/mq"
	"codejudge/internal/common/storage"
	"codejudge/internal/judge/admission"
	"codejudge/internal/judge/executor"
	"codejudge/internal/judge/language"
	"codejudge/internal/judge/prepare"
	"codejudge/internal/judge/sandbox/engine"
	"codejudge/pkg/utils/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr         = "0.0.0.0:8085"
	defaultReadTimeout      = 5 * time.Second
	defaultWriteTimeout     = 5 * time.Minute
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 30 * time.Second
	defaultTimeoutMs        = 5000
	defaultCompileTimeoutMs = 30000
	defaultStatusTTL        = 24 * time.Hour
	defaultStatusTimeout    = 2 * time.Second
	defaultFinalTopic       = "judge.status.final"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// JudgeConfig holds execution settings shared by every backend.
type JudgeConfig struct {
	executor.SelectConfig `yaml:",inline"`

	WorkRoot         string        `yaml:"workRoot"`
	TimeoutMs        int64         `yaml:"timeoutMs"`
	MaxTimeoutMs     int64         `yaml:"maxTimeoutMs"`
	CompileTimeoutMs int64         `yaml:"compileTimeoutMs"`
	ExecuteTimeout   time.Duration `yaml:"executeTimeout"`
}

// SandboxConfig holds native process engine settings.
type SandboxConfig struct {
	HelperPath     string `yaml:"helperPath"`
	SeccompProfile string `yaml:"seccompProfile"`
	CgroupRoot     string `yaml:"cgroupRoot"`
	MaxOutputBytes int64  `yaml:"maxOutputBytes"`
	MemoryMB       int64  `yaml:"memoryMb"`
	PIDs           int64  `yaml:"pids"`
	OutputMB       int64  `yaml:"outputMb"`
}

// ContainerConfig holds docker backend settings.
type ContainerConfig struct {
	engine.ContainerConfig `yaml:",inline"`

	// Preflight pings the daemon and pulls missing language images at startup.
	Preflight bool `yaml:"preflight"`
}

// StatusConfig holds status persistence settings.
type StatusConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	Timeout    time.Duration `yaml:"timeout"`
	FinalTopic string        `yaml:"finalTopic"`
}

// ArchiveConfig holds verdict archive settings.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

// LanguageConfig adds or overrides built-in languages.
type LanguageConfig struct {
	Languages []language.Spec `yaml:"languages"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server    ServerConfig          `yaml:"server"`
	Logger    logger.Config         `yaml:"logger"`
	Judge     JudgeConfig           `yaml:"judge"`
	Prepare   prepare.Config        `yaml:"prepare"`
	Sandbox   SandboxConfig         `yaml:"sandbox"`
	Container ContainerConfig       `yaml:"container"`
	Remote    executor.RemoteConfig `yaml:"remote"`
	Admission admission.Config      `yaml:"admission"`
	Redis     cache.RedisConfig     `yaml:"redis"`
	Kafka     mq.KafkaConfig        `yaml:"kafka"`
	MinIO     storage.MinIOConfig   `yaml:"minio"`
	Status    StatusConfig          `yaml:"status"`
	Archive   ArchiveConfig         `yaml:"archive"`
	Language  LanguageConfig        `yaml:"language"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads the YAML file when present, then applies .env and
// environment overrides and fills defaults.
func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadYAML(path, &cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file failed: %w", err)
		}
	}

	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	if err := applyEnvOverrides(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	switch cfg.Judge.BackendName() {
	case executor.BackendContainer, executor.BackendNative, executor.BackendRemote:
	default:
		return nil, fmt.Errorf("unknown judge backend %q", cfg.Judge.Backend)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("JUDGE_BACKEND")); v != "" {
		cfg.Judge.Backend = strings.ToLower(v)
	}
	ints := []struct {
		name string
		dst  *int64
	}{
		{"JUDGE_TIMEOUT_MS", &cfg.Judge.TimeoutMs},
		{"JUDGE_COMPILE_TIMEOUT_MS", &cfg.Judge.CompileTimeoutMs},
		{"JUDGE_MAX_OUTPUT_BYTES", &cfg.Sandbox.MaxOutputBytes},
	}
	for _, item := range ints {
		raw := strings.TrimSpace(getenv(item.name))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s: %q", item.name, raw)
		}
		*item.dst = n
	}
	if raw := strings.TrimSpace(getenv("JUDGE_MAX_SOURCE_BYTES")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid JUDGE_MAX_SOURCE_BYTES: %q", raw)
		}
		cfg.Prepare.MaxSourceBytes = n
	}
	if v := strings.TrimSpace(getenv("JUDGE_REMOTE_URL")); v != "" {
		cfg.Remote.URL = v
	}
	if v := strings.TrimSpace(getenv("JUDGE_REMOTE_API_KEY")); v != "" {
		cfg.Remote.APIKey = v
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Judge.TimeoutMs <= 0 {
		cfg.Judge.TimeoutMs = defaultTimeoutMs
	}
	if cfg.Judge.CompileTimeoutMs <= 0 {
		cfg.Judge.CompileTimeoutMs = defaultCompileTimeoutMs
	}
	if cfg.Judge.WorkRoot == "" {
		cfg.Judge.WorkRoot = os.TempDir()
	}
	if cfg.Sandbox.MaxOutputBytes > 0 && cfg.Sandbox.OutputMB <= 0 {
		cfg.Sandbox.OutputMB = (cfg.Sandbox.MaxOutputBytes + (1<<20 - 1)) >> 20
	}
	if cfg.Status.TTL == 0 {
		cfg.Status.TTL = defaultStatusTTL
	}
	if cfg.Status.Timeout == 0 {
		cfg.Status.Timeout = defaultStatusTimeout
	}
	if cfg.Status.FinalTopic == "" {
		cfg.Status.FinalTopic = defaultFinalTopic
	}
	if cfg.Redis.Addr != "" {
		applyRedisDefaults(&cfg.Redis)
	}
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
}

func (s SandboxConfig) toEngineConfig() engine.Config {
	return engine.Config{
		HelperPath:     s.HelperPath,
		SeccompProfile: s.SeccompProfile,
		CgroupRoot:     s.CgroupRoot,
		MaxOutputBytes: s.MaxOutputBytes,
	}
}
