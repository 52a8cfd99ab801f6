package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Provider ProviderConfig `yaml:"provider"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds token validation settings. Token issuance is handled by
// an external identity service; this backend only validates.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"applytrack"`
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint"          env:"STORAGE_ENDPOINT"`
	Region          string `yaml:"region"            env:"STORAGE_REGION"            env-default:"us-east-1"`
	Bucket          string `yaml:"bucket"            env:"STORAGE_BUCKET"            env-required:"true"`
	AccessKeyID     string `yaml:"access_key_id"     env:"STORAGE_ACCESS_KEY_ID"     env-required:"true"`
	SecretAccessKey string `yaml:"secret_access_key" env:"STORAGE_SECRET_ACCESS_KEY" env-required:"true"`
	UsePathStyle    bool   `yaml:"use_path_style"    env:"STORAGE_USE_PATH_STYLE"    env-default:"true"`
}

// ProviderConfig holds AI provider settings.
type ProviderConfig struct {
	APIKey    string        `yaml:"api_key"    env:"PROVIDER_API_KEY"    env-required:"true"`
	Model     string        `yaml:"model"      env:"PROVIDER_MODEL"      env-default:"claude-sonnet-4-5"`
	MaxTokens int64         `yaml:"max_tokens" env:"PROVIDER_MAX_TOKENS" env-default:"2048"`
	Timeout   time.Duration `yaml:"timeout"    env:"PROVIDER_TIMEOUT"    env-default:"60s"`
}

// JobsConfig holds analysis job execution settings. Mode selects the
// execution strategy at construction time: "queued" defers work to the
// worker via the durable queue, "sync" executes inline on the request.
type JobsConfig struct {
	Mode           string        `yaml:"mode"            env:"JOBS_MODE"            env-default:"sync"`
	PollInterval   time.Duration `yaml:"poll_interval"   env:"JOBS_POLL_INTERVAL"   env-default:"2s"`
	MaxAttempts    int           `yaml:"max_attempts"    env:"JOBS_MAX_ATTEMPTS"    env-default:"3"`
	BackoffBase    time.Duration `yaml:"backoff_base"    env:"JOBS_BACKOFF_BASE"    env-default:"5s"`
	BackoffMax     time.Duration `yaml:"backoff_max"     env:"JOBS_BACKOFF_MAX"     env-default:"5m"`
	PruneInterval  time.Duration `yaml:"prune_interval"  env:"JOBS_PRUNE_INTERVAL"  env-default:"1h"`
	PruneRetention time.Duration `yaml:"prune_retention" env:"JOBS_PRUNE_RETENTION" env-default:"168h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
