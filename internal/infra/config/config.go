package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddress string

	DatabaseURL  string
	StoreTimeout time.Duration

	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	PasswordPepper string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string

	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PublicBaseURL string
}

var required = []string{
	"DATABASE_URL",
	"REDIS_ADDRESS",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"JWT_ISSUER",
	"S3_REGION",
	"S3_BUCKET",
	"S3_PUBLIC_BASE_URL",
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	for _, key := range append(required,
		"HTTP_ADDRESS", "STORE_TIMEOUT",
		"REDIS_PASSWORD", "REDIS_DB", "PROFILE_CACHE_TTL",
		"COOKIE_DOMAIN", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS", "PASSWORD_PEPPER",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_ENDPOINT",
	) {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("STORE_TIMEOUT", "5s")
	viper.SetDefault("PROFILE_CACHE_TTL", "5m")

	for _, key := range required {
		if viper.GetString(key) == "" {
			return nil, fmt.Errorf("missing required config key %s", key)
		}
	}

	cfg := &Config{
		HTTPAddress:        viper.GetString("HTTP_ADDRESS"),
		DatabaseURL:        viper.GetString("DATABASE_URL"),
		StoreTimeout:       viper.GetDuration("STORE_TIMEOUT"),
		RedisAddress:       viper.GetString("REDIS_ADDRESS"),
		RedisPassword:      viper.GetString("REDIS_PASSWORD"),
		RedisDB:            viper.GetInt("REDIS_DB"),
		ProfileCacheTTL:    viper.GetDuration("PROFILE_CACHE_TTL"),
		PasswordPepper:     viper.GetString("PASSWORD_PEPPER"),
		AccessTokenSecret:  viper.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    viper.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:             viper.GetString("JWT_ISSUER"),
		CookieDomain:       viper.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:     splitOrigins(viper.GetString("ALLOWED_ORIGINS")),
		AllowCredentials:   viper.GetBool("ALLOW_CREDENTIALS"),
		S3Region:           viper.GetString("S3_REGION"),
		S3Bucket:           viper.GetString("S3_BUCKET"),
		S3AccessKey:        viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey:        viper.GetString("S3_SECRET_KEY"),
		S3Endpoint:         viper.GetString("S3_ENDPOINT"),
		S3PublicBaseURL:    viper.GetString("S3_PUBLIC_BASE_URL"),
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive durations")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	return cfg, nil
}

// splitOrigins parses ALLOWED_ORIGINS as a comma-separated list, e.g.
// "https://a.example.com,https://b.example.com". Surrounding whitespace and
// empty entries are dropped.
func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
