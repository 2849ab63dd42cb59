package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates configuration for the whole service.
type Config struct {
	Server ServerConfig
	Node   NodeConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	node, err := loadNodeConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Node: node}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// NodeConfig describes the backing squeaknode.
type NodeConfig struct {
	BaseURL string
	FeedURL string
	Network string
	Timeout time.Duration
}

// FeedEnabled reports whether a websocket event feed was configured.
func (c NodeConfig) FeedEnabled() bool {
	return c.FeedURL != ""
}

func loadNodeConfig() (NodeConfig, error) {
	baseURL := strings.TrimSpace(os.Getenv("SQUEAKNODE_URL"))
	if baseURL == "" {
		return NodeConfig{}, fmt.Errorf("SQUEAKNODE_URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("SQUEAKNODE_TIMEOUT"); err != nil {
		return NodeConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return NodeConfig{}, fmt.Errorf("SQUEAKNODE_TIMEOUT must be positive")
		}
		timeoutSeconds = *override
	}

	return NodeConfig{
		BaseURL: baseURL,
		FeedURL: strings.TrimSpace(os.Getenv("SQUEAKNODE_FEED_URL")),
		Network: getEnvOrDefault("NETWORK", ""),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
