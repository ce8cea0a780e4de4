package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"twcompany/enrichment"
	"twcompany/reconcile"
)

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	// Валидация уровня логирования
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" {
		valid := false
		logLevelUpper := strings.ToUpper(c.LogLevel)
		for _, level := range validLogLevels {
			if logLevelUpper == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	for name, source := range map[string]*SourceConfig{"moea": c.MOEA, "g0v": c.G0V} {
		if source == nil {
			errors = append(errors, fmt.Sprintf("%s source is nil", name))
			continue
		}
		errors = append(errors, source.validate(name)...)
	}
	if c.MOEA != nil && c.G0V != nil && !c.MOEA.Enabled && !c.G0V.Enabled {
		errors = append(errors, "at least one registry must be enabled")
	}

	if c.CoreRetryDelay < 0 {
		errors = append(errors, "core retry delay cannot be negative")
	}

	// Валидация пакетной обработки
	if c.Batch != nil {
		if c.Batch.LookupDelayMin < 0 || c.Batch.DetailDelay < 0 {
			errors = append(errors, "batch delays cannot be negative")
		}
		if c.Batch.LookupDelayMax < c.Batch.LookupDelayMin {
			errors = append(errors, "batch lookup delay max cannot be less than min")
		}
		if c.Batch.MaxRows < 1 {
			errors = append(errors, "batch max rows must be at least 1")
		}
	}

	// Валидация кэша
	if c.Cache != nil && c.Cache.Enabled {
		if c.Cache.TTL < time.Second {
			errors = append(errors, "cache TTL must be at least 1 second")
		}
		if c.Cache.CleanupInterval < time.Second {
			errors = append(errors, "cache cleanup interval must be at least 1 second")
		}
	}

	if len(errors) > 0 {
		// источники обходятся через map, порядок сообщений фиксируется
		sort.Strings(errors)
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *SourceConfig) validate(name string) []string {
	var errors []string

	for _, raw := range []string{s.SearchURL, s.DetailURL} {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errors = append(errors, fmt.Sprintf("%s: invalid url %q", name, raw))
		}
	}
	if s.SearchTimeout < 100*time.Millisecond || s.DetailTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("%s: timeout must be at least 100ms", name))
	}
	if s.RatePerSec < 0 {
		errors = append(errors, fmt.Sprintf("%s: rate per second cannot be negative", name))
	}

	return errors
}

// GetDefaults возвращает конфигурацию со значениями по умолчанию
func GetDefaults() *Config {
	batchDefaults := reconcile.DefaultConfig()
	return &Config{
		Port:     "9999",
		LogLevel: "INFO",
		MOEA: &SourceConfig{
			Enabled:       true,
			SearchURL:     enrichment.DefaultMOEASearchURL,
			DetailURL:     enrichment.DefaultMOEADetailURL,
			SearchTimeout: 10 * time.Second,
			DetailTimeout: 10 * time.Second,
			RatePerSec:    5,
		},
		G0V: &SourceConfig{
			Enabled:       true,
			SearchURL:     enrichment.DefaultG0VBaseURL + "/api/search/",
			DetailURL:     enrichment.DefaultG0VBaseURL + "/api/show/",
			SearchTimeout: 5 * time.Second,
			DetailTimeout: 10 * time.Second,
			RatePerSec:    5,
		},
		UserAgent:      enrichment.DefaultUserAgent,
		CoreRetryDelay: 300 * time.Millisecond,
		Cache: &enrichment.CacheConfig{
			Enabled:         true,
			TTL:             time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Batch: &BatchConfig{
			LookupDelayMin: batchDefaults.LookupDelayMin,
			LookupDelayMax: batchDefaults.LookupDelayMax,
			DetailDelay:    batchDefaults.DetailDelay,
			MaxRows:        2000,
		},
	}
}
