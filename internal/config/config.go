package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Env                string
	Port               string
	CORSAllowedOrigins []string
	RateLimit          string
	AdminAPIKey        string

	// Database
	DBDriver      string
	SQLitePath    string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBAutoMigrate bool

	// Ledger
	DefaultCurrency      string
	EnforceBalanceLimits bool
	LedgerLockTimeout    time.Duration

	// Events
	AMQPURL      string
	AMQPExchange string
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:5174",
	"http://127.0.0.1:5174",
}

// Load reads configuration from the environment, with a .env file as a
// fallback source when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", strings.Join(defaultOrigins, ","))
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("ADMIN_API_KEY", "")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "moneyflow.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "moneyflow")
	v.SetDefault("DB_PASSWORD", "moneyflow")
	v.SetDefault("DB_NAME", "moneyflow")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("DEFAULT_CURRENCY", "INR")
	v.SetDefault("ENFORCE_BALANCE_LIMITS", false)
	v.SetDefault("LEDGER_LOCK_TIMEOUT", "5s")

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "moneyflow.events")
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Env:                  v.GetString("ENV"),
		Port:                 v.GetString("PORT"),
		CORSAllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimit:            v.GetString("RATE_LIMIT"),
		AdminAPIKey:          v.GetString("ADMIN_API_KEY"),
		DBDriver:             strings.ToLower(v.GetString("DB_DRIVER")),
		SQLitePath:           v.GetString("SQLITE_PATH"),
		DBHost:               v.GetString("DB_HOST"),
		DBPort:               v.GetString("DB_PORT"),
		DBUser:               v.GetString("DB_USER"),
		DBPassword:           v.GetString("DB_PASSWORD"),
		DBName:               v.GetString("DB_NAME"),
		DBSSLMode:            v.GetString("DB_SSLMODE"),
		DBAutoMigrate:        v.GetBool("DB_AUTO_MIGRATE"),
		DefaultCurrency:      strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
		EnforceBalanceLimits: v.GetBool("ENFORCE_BALANCE_LIMITS"),
		AMQPURL:              v.GetString("AMQP_URL"),
		AMQPExchange:         v.GetString("AMQP_EXCHANGE"),
	}

	timeoutStr := v.GetString("LEDGER_LOCK_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		log.Printf("Warning: invalid LEDGER_LOCK_TIMEOUT value '%s', falling back to 5s\n", timeoutStr)
		timeout = 5 * time.Second
	}
	cfg.LedgerLockTimeout = timeout

	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = defaultOrigins
	}

	return cfg
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
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
