package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WebSocket keepalive settings
const (
	WriteWait  = 10 * time.Second    // Time allowed to write a frame to the peer
	PongWait   = 60 * time.Second    // Time allowed to read the next pong from the peer
	PingPeriod = (PongWait * 9) / 10 // Send pings at this interval, must be less than PongWait
)

// NATS subject layout
const (
	SubjectPrefix    = "chat"
	SessionSubject   = SubjectPrefix + ".session" // chat.session.<sessionID>
	RoomSubject      = SubjectPrefix + ".room"    // chat.room.<roomName>
	BroadcastSubject = SubjectPrefix + ".broadcast"
)

// RateLimit bounds how many inbound events a single session may submit.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Config is the runtime configuration for the coordinator server.
type Config struct {
	ServerAddr      string        `yaml:"server_addr"`
	NatsURL         string        `yaml:"nats_url"`
	EmbeddedNats    bool          `yaml:"embedded_nats"`
	ClientURL       string        `yaml:"client_url"`
	LogLevel        string        `yaml:"log_level"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       RateLimit     `yaml:"rate_limit"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		ServerAddr:      ":3000",
		NatsURL:         "nats://127.0.0.1:4222",
		ClientURL:       "http://localhost:5173",
		LogLevel:        "info",
		MaxMessageSize:  4096,
		ShutdownTimeout: 30 * time.Second,
		RateLimit: RateLimit{
			RPS:   10,
			Burst: 20,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// an optional .env file and finally the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	// a missing .env is fine
	_ = godotenv.Load(".env")

	applyEnv(&cfg)
	return sanitize(cfg), nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.ServerAddr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NatsURL = v
	}
	if v := os.Getenv("EMBEDDED_NATS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EmbeddedNats = b
		}
	}
	if v := os.Getenv("CLIENT_URL"); v != "" {
		cfg.ClientURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MAX_MESSAGE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxMessageSize = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = n
		}
	}
}

func sanitize(cfg Config) Config {
	def := Default()
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = def.ServerAddr
	}
	if cfg.NatsURL == "" {
		cfg.NatsURL = def.NatsURL
	}
	if cfg.ClientURL == "" {
		cfg.ClientURL = def.ClientURL
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.RateLimit.RPS <= 0 {
		cfg.RateLimit.RPS = def.RateLimit.RPS
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = def.RateLimit.Burst
	}
	return cfg
}
