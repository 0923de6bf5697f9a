package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Directory DirectoryConfig
	Feed      FeedConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	directory, err := loadDirectoryConfig()
	if err != nil {
		return nil, err
	}

	feed, err := loadFeedConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Directory: directory, Feed: feed}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// DirectoryConfig 描述人员目录的初始化方式。
type DirectoryConfig struct {
	Seed        bool
	StampWrites bool
}

// FeedConfig 描述变更推送配置。
type FeedConfig struct {
	Enabled bool
	Buffer  int
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(strings.TrimSpace(os.Getenv("PORT")))
	if err != nil {
		return ServerConfig{}, err
	}

	shutdown := 10
	if override, err := parseOptionalIntEnv("SHUTDOWN_TIMEOUT"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ServerConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT value %d: must not be negative", *override)
		}
		shutdown = *override
	}

	return ServerConfig{
		Addr:            addr,
		AllowedOrigins:  parseListEnv("CORS_ALLOWED_ORIGINS"),
		ShutdownTimeout: time.Duration(shutdown) * time.Second,
	}, nil
}

func parseAddr(port string) (string, error) {
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	return ":" + port, nil
}

func loadDirectoryConfig() (DirectoryConfig, error) {
	seed, err := parseBoolEnv("PEOPLE_SEED", true)
	if err != nil {
		return DirectoryConfig{}, err
	}

	stamp, err := parseBoolEnv("PEOPLE_STAMP_WRITES", true)
	if err != nil {
		return DirectoryConfig{}, err
	}

	return DirectoryConfig{Seed: seed, StampWrites: stamp}, nil
}

func loadFeedConfig() (FeedConfig, error) {
	enabled, err := parseBoolEnv("FEED_ENABLED", true)
	if err != nil {
		return FeedConfig{}, err
	}

	buffer := 16
	if override, err := parseOptionalIntEnv("FEED_BUFFER"); err != nil {
		return FeedConfig{}, err
	} else if override != nil {
		if *override < 1 {
			buffer = 1
		} else {
			buffer = *override
		}
	}

	return FeedConfig{Enabled: enabled, Buffer: buffer}, nil
}

func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
