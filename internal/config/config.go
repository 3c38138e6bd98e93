package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Monitor  MonitorConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// MonitorConfig - настройки мониторинга фандинга и условных ордеров
type MonitorConfig struct {
	// Отслеживаемые рынки
	Symbols   []string // торговые пары (BTCUSDT, ETHUSDT, ...)
	Exchanges []string // подключённые биржи

	// Периодичность опросов
	PollInterval            time.Duration // проверка ставок фандинга
	ConditionalPollInterval time.Duration // проверка условных ордеров

	// Пороги отбора пар
	MinSpreadThreshold  float64 // минимальный спред фандинга за интервал (доли)
	MaxAdversePriceDiff float64 // допустимая неблагоприятная разница цен (доли)

	// Пороги сигналов о возможностях
	OpportunityAnnualizedThreshold float64 // годовая доходность для сигнала (доли)
	ApproachingRatio               float64 // доля порога для сигнала "приближается"

	// Кэш ставок
	CacheStaleness time.Duration // максимальный возраст записи при чтении

	// Интервал выплат по умолчанию когда биржа его не сообщает
	DefaultFundingIntervalHours int
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "fundingarb"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Monitor: MonitorConfig{
			Symbols:   getEnvAsSlice("MONITOR_SYMBOLS", []string{"BTCUSDT", "ETHUSDT"}),
			Exchanges: getEnvAsSlice("MONITOR_EXCHANGES", []string{"binance", "okx", "bybit", "bingx", "gate"}),

			PollInterval:            getEnvAsDuration("POLL_INTERVAL", 1*time.Minute),
			ConditionalPollInterval: getEnvAsDuration("CONDITIONAL_POLL_INTERVAL", 10*time.Second),

			MinSpreadThreshold:  getEnvAsFloat("MIN_SPREAD_THRESHOLD", 0.005),
			MaxAdversePriceDiff: getEnvAsFloat("MAX_ADVERSE_PRICE_DIFF", 0.002),

			OpportunityAnnualizedThreshold: getEnvAsFloat("OPPORTUNITY_ANNUALIZED_THRESHOLD", 0.5),
			ApproachingRatio:               getEnvAsFloat("APPROACHING_RATIO", 0.8),

			CacheStaleness: getEnvAsDuration("CACHE_STALENESS", 10*time.Minute),

			DefaultFundingIntervalHours: getEnvAsInt("DEFAULT_FUNDING_INTERVAL_HOURS", 8),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров.
// Ошибки конфигурации - повод не стартовать вовсе.
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if len(c.Monitor.Symbols) == 0 {
		return fmt.Errorf("MONITOR_SYMBOLS must contain at least one symbol")
	}

	if len(c.Monitor.Exchanges) < 2 {
		return fmt.Errorf("MONITOR_EXCHANGES must contain at least two exchanges, got %d", len(c.Monitor.Exchanges))
	}

	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %v", c.Monitor.PollInterval)
	}

	if c.Monitor.ConditionalPollInterval <= 0 {
		return fmt.Errorf("CONDITIONAL_POLL_INTERVAL must be positive, got %v", c.Monitor.ConditionalPollInterval)
	}

	if c.Monitor.MinSpreadThreshold < 0 {
		return fmt.Errorf("MIN_SPREAD_THRESHOLD cannot be negative, got %v", c.Monitor.MinSpreadThreshold)
	}

	if c.Monitor.MaxAdversePriceDiff < 0 {
		return fmt.Errorf("MAX_ADVERSE_PRICE_DIFF cannot be negative, got %v", c.Monitor.MaxAdversePriceDiff)
	}

	if c.Monitor.OpportunityAnnualizedThreshold <= 0 {
		return fmt.Errorf("OPPORTUNITY_ANNUALIZED_THRESHOLD must be positive, got %v", c.Monitor.OpportunityAnnualizedThreshold)
	}

	if c.Monitor.ApproachingRatio <= 0 || c.Monitor.ApproachingRatio >= 1 {
		return fmt.Errorf("APPROACHING_RATIO must be in (0, 1), got %v", c.Monitor.ApproachingRatio)
	}

	if c.Monitor.CacheStaleness <= 0 {
		return fmt.Errorf("CACHE_STALENESS must be positive, got %v", c.Monitor.CacheStaleness)
	}

	if c.Monitor.DefaultFundingIntervalHours <= 0 || c.Monitor.DefaultFundingIntervalHours > 24 {
		return fmt.Errorf("DEFAULT_FUNDING_INTERVAL_HOURS must be in [1, 24], got %d", c.Monitor.DefaultFundingIntervalHours)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice читает список значений, разделённых запятыми.
// Пустые элементы и пробелы отбрасываются.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
