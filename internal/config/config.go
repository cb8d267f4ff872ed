package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
	Events   EventsConfig   `mapstructure:"events" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects the SQL backend.
// For postgres URL is a connection string; for sqlite it is a file path or DSN.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL         string `mapstructure:"url" validate:"required"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
// Provider "fallback" runs without any model: questions come from a fixed
// template and answers are self-graded.
type LLMConfig struct {
	Provider              string `mapstructure:"provider" validate:"required,oneof=gemini fallback"`
	GeminiAPIKey          string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	ModelName             string `mapstructure:"model_name" validate:"required"`
	MaxRetries            int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds     int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// ReviewConfig tunes review sessions.
type ReviewConfig struct {
	DefaultMaxQuestions  int    `mapstructure:"default_max_questions" validate:"required,gt=0"`
	FallbackQuestions    int    `mapstructure:"fallback_questions" validate:"required,gt=0"`
	DefaultTopic         string `mapstructure:"default_topic" validate:"required"`
	InitialDifficulty    string `mapstructure:"initial_difficulty" validate:"required,oneof=easy medium hard"`
	RetentionMinutes     int    `mapstructure:"retention_minutes" validate:"required,gt=0"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`

	// IdleTimeoutMinutes ends active sessions nobody touched for this long.
	// 0 disables it.
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes" validate:"gte=0"`
}

// EventsConfig sizes the asynchronous event dispatcher.
type EventsConfig struct {
	Workers   int `mapstructure:"workers" validate:"required,gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}
