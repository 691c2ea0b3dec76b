package models

type Configuration struct {
	App     AppConfiguration     `mapstructure:"app"     validate:"required"`
	API     APIConfiguration     `mapstructure:"api"     validate:"required"`
	Session SessionConfiguration `mapstructure:"session" validate:"required"`
}

type AppConfiguration struct {
	LogLevel       string   `mapstructure:"log_level"       validate:"oneof=debug info warn error fatal panic"`
	Port           int      `mapstructure:"port"            validate:"gte=80,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"required"`
}

// APIConfiguration points the client at the remote authentication API.
type APIConfiguration struct {
	BaseURL        string `mapstructure:"base_url"        validate:"required,http_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1,lte=120"`
}

// SessionConfiguration controls where the session record is persisted.
type SessionConfiguration struct {
	File string `mapstructure:"file" validate:"required"`
}
