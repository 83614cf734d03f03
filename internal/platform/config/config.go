package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures process level configuration.
type Server struct {
	Addr     string `envconfig:"SCROLLVAULT_ADDR" default:":8080"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Token   TokenConfig
	Scroll  ScrollConfig
	Mesh    MeshConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// TokenConfig configures the HS256 license token issuer.
type TokenConfig struct {
	Secret string        `envconfig:"SCROLL_TOKEN_SECRET"`
	Issuer string        `envconfig:"SCROLL_TOKEN_ISSUER" default:"faa.zone.scroll.backend"`
	TTL    time.Duration `envconfig:"SCROLL_TOKEN_TTL" default:"24h"`

	// SecretGenerated is set when no secret was configured and a random
	// per-process one was minted. Tokens will not survive a restart.
	SecretGenerated bool `ignored:"true"`
}

// ScrollConfig configures the signer and treaty intake rules.
type ScrollConfig struct {
	SigningKeyFile   string `envconfig:"SCROLL_SIGNING_KEY_FILE"`
	SigningKeyBits   int    `envconfig:"SCROLL_SIGNING_KEY_BITS" default:"2048"`
	MinFunding       int64  `envconfig:"SCROLL_MIN_FUNDING" default:"50000"`
	PositionBaseline int64  `envconfig:"SCROLL_POSITION_BASELINE" default:"247"`
}

type MeshConfig struct {
	PulseInterval time.Duration `envconfig:"MESH_PULSE_INTERVAL" default:"9s"`
	DNSHost       string        `envconfig:"MESH_DNS_HOST" default:"vaultmesh.faa.zone"`
	DNSTimeout    time.Duration `envconfig:"MESH_DNS_TIMEOUT" default:"2s"`
	DNSCacheTTL   time.Duration `envconfig:"MESH_DNS_CACHE_TTL" default:"30s"`
}

// RedisConfig configures the optional Redis backend for the ledger and mesh
// state. An empty URL keeps everything in memory.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// KafkaConfig enables the audit Kafka sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	AuditTopic string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"scrollvault.audit"`
}

// AuditConfig exposes the audit read API when AdminToken is set.
type AuditConfig struct {
	AdminToken string `envconfig:"AUDIT_ADMIN_TOKEN"`
	BufferSize int    `envconfig:"AUDIT_BUFFER_SIZE" default:"1024"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

func (s Server) IsProduction() bool {
	return s.Env == EnvProduction
}

// FromEnv loads an optional .env file and then reads the environment.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	return Process()
}

// Process reads configuration from the environment only.
func Process() (Server, error) {
	var cfg Server
	if err := envconfig.Process("", &cfg); err != nil {
		return Server{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s *Server) finalize() error {
	switch s.Env {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return fmt.Errorf("APP_ENV must be development, production or test, got %q", s.Env)
	}
	if s.Token.Secret == "" {
		if s.IsProduction() {
			return errors.New("SCROLL_TOKEN_SECRET is required in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		s.Token.Secret = secret
		s.Token.SecretGenerated = true
	}
	if s.Token.TTL <= 0 {
		return fmt.Errorf("SCROLL_TOKEN_TTL must be positive, got %s", s.Token.TTL)
	}
	if s.Scroll.MinFunding < 0 {
		return fmt.Errorf("SCROLL_MIN_FUNDING must not be negative, got %d", s.Scroll.MinFunding)
	}
	if s.Mesh.PulseInterval <= 0 {
		return fmt.Errorf("MESH_PULSE_INTERVAL must be positive, got %s", s.Mesh.PulseInterval)
	}
	if s.Audit.BufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", s.Audit.BufferSize)
	}
	if s.Mesh.DNSTimeout <= 0 {
		return fmt.Errorf("MESH_DNS_TIMEOUT must be positive, got %s", s.Mesh.DNSTimeout)
	}
	if s.Mesh.DNSCacheTTL <= 0 {
		return fmt.Errorf("MESH_DNS_CACHE_TTL must be positive, got %s", s.Mesh.DNSCacheTTL)
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
