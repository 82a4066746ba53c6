package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string
	GinMode     string
	CORSOrigins []string
	JWTSecret   string
	Log         LogConfig
	DB          DBConfig
	Business    BusinessConfig
}

type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

type DBConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the postgres connection string, preferring DATABASE_URL.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// BusinessConfig holds the tunables that can be overridden from the YAML file
// named by KASPIT_CONFIG.
type BusinessConfig struct {
	Matching  MatchingConfig  `yaml:"matching"`
	Budget    BudgetConfig    `yaml:"budget"`
	VAT       VATConfig       `yaml:"vat"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Recurring RecurringConfig `yaml:"recurring"`
}

type MatchingConfig struct {
	MinScore       float64 `yaml:"min_score"`
	MaxSuggestions int     `yaml:"max_suggestions"`
	WindowDays     int     `yaml:"window_days"`
	AutoLinkScore  float64 `yaml:"auto_link_score"`
	AutoLinkMargin float64 `yaml:"auto_link_margin"`
}

type BudgetConfig struct {
	WarningPercent float64 `yaml:"warning_percent"`
}

type VATConfig struct {
	DefaultRate decimal.Decimal `yaml:"default_rate"`
}

type ForecastConfig struct {
	LookbackMonths int `yaml:"lookback_months"`
	DefaultMonths  int `yaml:"default_months"`
}

type RecurringConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DefaultBusiness returns the tunables used when no YAML overlay is present.
func DefaultBusiness() BusinessConfig {
	return BusinessConfig{
		Matching: MatchingConfig{
			MinScore:       30,
			MaxSuggestions: 5,
			WindowDays:     60,
			AutoLinkScore:  90,
			AutoLinkMargin: 10,
		},
		Budget:    BudgetConfig{WarningPercent: 80},
		VAT:       VATConfig{DefaultRate: decimal.RequireFromString("0.18")},
		Forecast:  ForecastConfig{LookbackMonths: 3, DefaultMonths: 6},
		Recurring: RecurringConfig{Interval: time.Hour},
	}
}

// Load reads .env (if any), the environment, and the optional YAML overlay.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_PORT: %w", err)
	}

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		DB: DBConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "kaspit"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Business: DefaultBusiness(),
	}

	if path := getEnv("KASPIT_CONFIG", ""); path != "" {
		if err := LoadBusiness(path, &cfg.Business); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadBusiness overlays the YAML file at path onto b. Keys absent from the
// file keep their current values.
func LoadBusiness(path string, b *BusinessConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, b); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
