package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RefreshInterval is the fixed time between two probes of the monitored server.
const RefreshInterval = 30 * time.Second

// Environment keys.
const (
	KeyServerIP     = "SERVER_IP"
	KeyServerPort   = "SERVER_PORT"
	KeyPassword     = "DASHBOARD_PASSWORD"
	KeyListenAddr   = "LISTEN_ADDR"
	KeyLogLevel     = "LOG_LEVEL"
	KeyOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Config is the process configuration, read once at start.
type Config struct {
	ServerIP   string
	ServerPort int
	Password   string

	ListenAddr   string
	LogLevel     string
	OTLPEndpoint string
}

// LoadEnv loads variables from .env files into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and validates the configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyListenAddr, ":8501")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyOTLPEndpoint, "")

	var missing []string
	for _, key := range []string{KeyServerIP, KeyServerPort, KeyPassword} {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyServerPort)))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s %q: %w", KeyServerPort, v.GetString(KeyServerPort), err)
	}

	cfg := Config{
		ServerIP:     strings.TrimSpace(v.GetString(KeyServerIP)),
		ServerPort:   port,
		Password:     v.GetString(KeyPassword),
		ListenAddr:   strings.TrimSpace(v.GetString(KeyListenAddr)),
		LogLevel:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		OTLPEndpoint: strings.TrimSpace(v.GetString(KeyOTLPEndpoint)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ServerIP == "" {
		return fmt.Errorf("%s must not be empty", KeyServerIP)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid %s %d", KeyServerPort, c.ServerPort)
	}
	if c.Password == "" {
		return fmt.Errorf("%s must not be empty", KeyPassword)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("%s must not be empty", KeyListenAddr)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid %s %q", KeyLogLevel, c.LogLevel)
	}
	return nil
}

// Target is the monitored server as host:port.
func (c Config) Target() string {
	return net.JoinHostPort(c.ServerIP, strconv.Itoa(c.ServerPort))
}
