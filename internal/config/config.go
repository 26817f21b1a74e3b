package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka broker and consumer-group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// JWTConfig holds token signing settings for the admin surface.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// SchedulingConfig holds the availability and admission tuning knobs.
type SchedulingConfig struct {
	SlotLockWait      time.Duration // bounded wait for the admission mutex
	SlotLockTTL       time.Duration // staleness bound on abandoned admission locks
	SoftLockTTL       time.Duration // default checkout hold duration
	SoftLockSweep     time.Duration // period of the expired-hold sweeper
	CacheTTL          time.Duration // availability cache safety-net TTL
	CacheMaxEntries   int
	RateLimitPerEmail int
	RateLimitPerIP    int
	RateLimitWindow   time.Duration
}

// ServiceConfig is the root configuration for the scheduling service.
type ServiceConfig struct {
	Port       string
	AppEnv     string
	DB         DatabaseConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	Scheduling SchedulingConfig
}

// Load reads configuration from SCHEDULING_-prefixed environment variables
// with production-safe defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SCHEDULING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_port", "8080")
	v.SetDefault("app_env", "development")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "scheduling")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_group_prefix", "slotwise.")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_token_ttl", "15m")

	v.SetDefault("slot_lock_wait", "10s")
	v.SetDefault("slot_lock_ttl", "30s")
	v.SetDefault("soft_lock_ttl", "300s")
	v.SetDefault("soft_lock_sweep", "60s")
	v.SetDefault("cache_ttl", "3600s")
	v.SetDefault("cache_max_entries", 4096)
	v.SetDefault("rate_limit_per_email", 5)
	v.SetDefault("rate_limit_per_ip", 20)
	v.SetDefault("rate_limit_window", "1h")

	cfg := &ServiceConfig{
		Port:   ":" + strings.TrimPrefix(v.GetString("service_port"), ":"),
		AppEnv: v.GetString("app_env"),
		DB: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(v.GetString("kafka_brokers"), ","),
			GroupPrefix: v.GetString("kafka_group_prefix"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("jwt_secret"),
			TokenTTL: v.GetDuration("jwt_token_ttl"),
		},
		Scheduling: SchedulingConfig{
			SlotLockWait:      v.GetDuration("slot_lock_wait"),
			SlotLockTTL:       v.GetDuration("slot_lock_ttl"),
			SoftLockTTL:       v.GetDuration("soft_lock_ttl"),
			SoftLockSweep:     v.GetDuration("soft_lock_sweep"),
			CacheTTL:          v.GetDuration("cache_ttl"),
			CacheMaxEntries:   v.GetInt("cache_max_entries"),
			RateLimitPerEmail: v.GetInt("rate_limit_per_email"),
			RateLimitPerIP:    v.GetInt("rate_limit_per_ip"),
			RateLimitWindow:   v.GetDuration("rate_limit_window"),
		},
	}

	if cfg.AppEnv != "development" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("SCHEDULING_JWT_SECRET is required outside development")
	}
	return cfg, nil
}
