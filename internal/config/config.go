package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configはアプリ全体の設定
// キーは環境変数名の小文字（YAMLも同じキー）
type Config struct {
	Port  string `koanf:"port"`   // サーバーポート（8080）
	GoEnv string `koanf:"go_env"` // dev/prod
	FEURL string `koanf:"fe_url"` // フロントURL（CORS）

	DatabaseURL      string `koanf:"database_url"` // あれば最優先
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`
	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     int    `koanf:"postgres_port"`
	PostgresSSLMode  string `koanf:"postgres_sslmode"`

	JWTSecret string        `koanf:"jwt_secret"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`

	// Mercado Pago
	MPAccessToken     string        `koanf:"mp_access_token"`
	MPBaseURL         string        `koanf:"mp_base_url"`
	MPWebhookSecret   string        `koanf:"mp_webhook_secret"` // 空なら署名検証しない
	MPNotificationURL string        `koanf:"mp_notification_url"`
	MPTimeout         time.Duration `koanf:"mp_timeout"`

	// 空ならログ通知のみ
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// 空ならキャッシュなし
	RedisAddr      string        `koanf:"redis_addr"`
	RedisPassword  string        `koanf:"redis_password"`
	StatusCacheTTL time.Duration `koanf:"status_cache_ttl"`

	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`
}

var defaults = map[string]interface{}{
	"port":             "8080",
	"go_env":           "dev",
	"postgres_host":    "localhost",
	"postgres_port":    5432,
	"postgres_user":    "postgres",
	"postgres_db":      "powerchip",
	"postgres_sslmode": "disable",
	"jwt_ttl":          24 * time.Hour,
	"mp_base_url":      "https://api.mercadopago.com",
	"mp_timeout":       5 * time.Second,
	"kafka_topic":      "powerchip.orders",
	"status_cache_ttl": 5 * time.Second,
	"log_level":        "info",
}

// Loadはデフォルト → CONFIG_FILE（YAML）→ 環境変数 の順で上書き
func Load() (Config, error) {
	k := koanf.New(".")

	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("default %s: %w", key, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

//必須チェック
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" && (c.PostgresHost == "" || c.PostgresDB == "") {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST/POSTGRES_DB is required")
	}
	if c.MPTimeout <= 0 {
		return fmt.Errorf("MP_TIMEOUT must be positive")
	}
	return nil
}

// DSNを組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
