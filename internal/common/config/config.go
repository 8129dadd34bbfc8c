// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Codes         CodesConfig             `mapstructure:"codes"`
	Mocks         MocksConfig             `mapstructure:"mocks"`
	Keys          KeysConfig              `mapstructure:"keys"`
	Synthetic     SyntheticConfig         `mapstructure:"synthetic"`
	Authorize     AuthorizeConfig         `mapstructure:"authorize"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	BodyLimit      int    `mapstructure:"body_limit"`    // bytes
	ReadTimeout    int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CodesConfig selects where one-time authorization codes live.
type CodesConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
	TTL     int    `mapstructure:"ttl"`     // milliseconds
	Prefix  string `mapstructure:"prefix"`
}

// MocksConfig locates the service catalog.
type MocksConfig struct {
	Dir    string `mapstructure:"dir"`
	Watch  bool   `mapstructure:"watch"`
	Strict bool   `mapstructure:"strict"`
}

// KeysConfig overrides the correlation key schema. Empty means the built-in schema.
type KeysConfig struct {
	Schema []KeyTypeConfig `mapstructure:"schema"`
}

type KeyTypeConfig struct {
	Name       string `mapstructure:"name"`
	Format     string `mapstructure:"format"` // uuid | sequence
	Regenerate bool   `mapstructure:"regenerate"`
	Start      int64  `mapstructure:"start"`
}

type SyntheticConfig struct {
	Seed int64 `mapstructure:"seed"` // 0 = random
}

type AuthorizeConfig struct {
	OutcomeService string `mapstructure:"outcome_service"`
	ParkedTTL      int    `mapstructure:"parked_ttl"` // milliseconds, 0 = until resumed
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	MetricsPrefix  string `mapstructure:"metrics_prefix"`
}
