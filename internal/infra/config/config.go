package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// Refresh TTL when the client does not ask to be remembered.
	ShortRefreshTTL time.Duration

	PasswordPepper string

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
	BlockedIPs       []string

	// Requests per window for the default rate limits.
	UserRateLimit   int
	AnonRateLimit   int
	RateLimitWindow time.Duration

	LogLevel string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	keys := []string{
		"DATABASE_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "SHORT_REFRESH_TTL",
		"PASSWORD_PEPPER", "HTTP_ADDRESS", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"BLOCKED_IPS", "USER_RATE_LIMIT", "ANON_RATE_LIMIT", "RATE_LIMIT_WINDOW",
		"LOG_LEVEL",
	}
	for _, k := range keys {
		if err := viper.BindEnv(k); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("SHORT_REFRESH_TTL", "24h")
	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("USER_RATE_LIMIT", 100)
	viper.SetDefault("ANON_RATE_LIMIT", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW", "60s")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:      viper.GetString("DATABASE_URL"),
		RedisAddress:     viper.GetString("REDIS_ADDRESS"),
		RedisPassword:    viper.GetString("REDIS_PASSWORD"),
		RedisDB:          viper.GetInt("REDIS_DB"),
		JWTSecret:        viper.GetString("JWT_SECRET"),
		JWTIssuer:        viper.GetString("JWT_ISSUER"),
		JWTAudience:      viper.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:   viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  viper.GetDuration("REFRESH_TOKEN_TTL"),
		ShortRefreshTTL:  viper.GetDuration("SHORT_REFRESH_TTL"),
		PasswordPepper:   viper.GetString("PASSWORD_PEPPER"),
		HTTPAddress:      viper.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: viper.GetBool("ALLOW_CREDENTIALS"),
		BlockedIPs:       viper.GetStringSlice("BLOCKED_IPS"),
		UserRateLimit:    viper.GetInt("USER_RATE_LIMIT"),
		AnonRateLimit:    viper.GetInt("ANON_RATE_LIMIT"),
		RateLimitWindow:  viper.GetDuration("RATE_LIMIT_WINDOW"),
		LogLevel:         viper.GetString("LOG_LEVEL"),
	}

	for _, req := range []struct{ name, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_ADDRESS", cfg.RedisAddress},
		{"JWT_SECRET", cfg.JWTSecret},
		{"JWT_ISSUER", cfg.JWTIssuer},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("%s is required", req.name)
		}
	}

	return cfg, nil
}
