package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"twcompany/enrichment"
	"twcompany/reconcile"
	"twcompany/resolution"
)

// Config конфигурация сервиса
type Config struct {
	// Сервер
	Port string `json:"port"`

	// Логирование
	LogLevel string `json:"log_level"`

	// Реестры
	MOEA      *SourceConfig `json:"moea"`
	G0V       *SourceConfig `json:"g0v"`
	UserAgent string        `json:"user_agent"`

	// Конвейер поиска по названию
	CoreRetryDelay time.Duration `json:"core_retry_delay"`

	// Пакетная обработка
	Batch *BatchConfig `json:"batch"`

	// Кэш карточек
	Cache *enrichment.CacheConfig `json:"cache"`
}

// SourceConfig настройки одного реестра
type SourceConfig struct {
	Enabled       bool          `json:"enabled"`
	SearchURL     string        `json:"search_url"`
	DetailURL     string        `json:"detail_url"`
	SearchTimeout time.Duration `json:"search_timeout"`
	DetailTimeout time.Duration `json:"detail_timeout"`
	RatePerSec    float64       `json:"rate_per_sec"`
}

// BatchConfig настройки пакетной обработки
type BatchConfig struct {
	LookupDelayMin time.Duration `json:"lookup_delay_min"`
	LookupDelayMax time.Duration `json:"lookup_delay_max"`
	DetailDelay    time.Duration `json:"detail_delay"`
	MaxRows        int           `json:"max_rows"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Файл .env в рабочем каталоге, если он есть, читается первым и не
// перекрывает уже заданные переменные.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	g0vBase := getEnv("G0V_BASE_URL", enrichment.DefaultG0VBaseURL)
	batchDefaults := reconcile.DefaultConfig()
	g0vDefaults := enrichment.G0VSourceConfig(g0vBase)

	config := &Config{
		Port:     getEnv("SERVER_PORT", "9999"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		MOEA: &SourceConfig{
			Enabled:       getEnvBool("MOEA_ENABLED", true),
			SearchURL:     getEnv("MOEA_SEARCH_URL", enrichment.DefaultMOEASearchURL),
			DetailURL:     getEnv("MOEA_DETAIL_URL", enrichment.DefaultMOEADetailURL),
			SearchTimeout: getEnvDuration("MOEA_TIMEOUT", 10*time.Second),
			DetailTimeout: getEnvDuration("MOEA_TIMEOUT", 10*time.Second),
			RatePerSec:    getEnvFloat("MOEA_RATE_PER_SEC", 5),
		},
		G0V: &SourceConfig{
			Enabled:       getEnvBool("G0V_ENABLED", true),
			SearchURL:     g0vDefaults.SearchURL,
			DetailURL:     g0vDefaults.DetailURL,
			SearchTimeout: getEnvDuration("G0V_SEARCH_TIMEOUT", 5*time.Second),
			DetailTimeout: getEnvDuration("G0V_DETAIL_TIMEOUT", 10*time.Second),
			RatePerSec:    getEnvFloat("G0V_RATE_PER_SEC", 5),
		},
		UserAgent: getEnv("HTTP_USER_AGENT", enrichment.DefaultUserAgent),

		CoreRetryDelay: getEnvDuration("CORE_RETRY_DELAY", resolution.DefaultCoreRetryDelay),

		Batch: &BatchConfig{
			LookupDelayMin: getEnvDuration("BATCH_LOOKUP_DELAY_MIN", batchDefaults.LookupDelayMin),
			LookupDelayMax: getEnvDuration("BATCH_LOOKUP_DELAY_MAX", batchDefaults.LookupDelayMax),
			DetailDelay:    getEnvDuration("BATCH_DETAIL_DELAY", batchDefaults.DetailDelay),
			MaxRows:        getEnvInt("BATCH_MAX_ROWS", 2000),
		},

		Cache: &enrichment.CacheConfig{
			Enabled:         getEnvBool("DETAIL_CACHE_ENABLED", true),
			TTL:             getEnvDuration("DETAIL_CACHE_TTL", time.Hour),
			CleanupInterval: getEnvDuration("DETAIL_CACHE_CLEANUP", 10*time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// MOEASource конфигурация клиента официального реестра
func (c *Config) MOEASource() enrichment.SourceConfig {
	return c.MOEA.source(enrichment.MOEAName, c.UserAgent)
}

// G0VSource конфигурация клиента зеркала
func (c *Config) G0VSource() enrichment.SourceConfig {
	return c.G0V.source(enrichment.G0VName, c.UserAgent)
}

// ResolverConfig настройки конвейера поиска
func (c *Config) ResolverConfig() resolution.Config {
	return resolution.Config{CoreRetryDelay: c.CoreRetryDelay}
}

// ReconcileConfig паузы пакетной обработки
func (c *Config) ReconcileConfig() reconcile.Config {
	config := reconcile.DefaultConfig()
	config.LookupDelayMin = c.Batch.LookupDelayMin
	config.LookupDelayMax = c.Batch.LookupDelayMax
	config.DetailDelay = c.Batch.DetailDelay
	return config
}

func (s *SourceConfig) source(name, userAgent string) enrichment.SourceConfig {
	return enrichment.SourceConfig{
		Name:          name,
		SearchURL:     s.SearchURL,
		DetailURL:     s.DetailURL,
		SearchTimeout: s.SearchTimeout,
		DetailTimeout: s.DetailTimeout,
		RateLimit:     s.RatePerSec,
		UserAgent:     userAgent,
		Enabled:       s.Enabled,
	}
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
