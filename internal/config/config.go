// Package config loads service configuration from the environment (optionally
// seeded from a .env file) and the loyalty program definition from YAML.
package config

import (
	"fmt"
	"errors"
	"log"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// DefaultJWTSecret is the development signing key. Load rejects it when ENV
// is production.
const DefaultJWTSecret = "loyalty-dev-secret"

// Config is the process configuration.
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"3000"`

	DB    DBConfig
	Redis RedisConfig

	JWTSecret   string        `env:"JWT_SECRET" envDefault:"loyalty-dev-secret"`
	RFMInterval time.Duration `env:"RFM_INTERVAL" envDefault:"6h"`
	LogFile     string        `env:"LOG_FILE"`
	ProgramFile string        `env:"PROGRAM_FILE" envDefault:"program.yaml"`

	Program ProgramConfig
}

// DBConfig holds the durable store connection settings.
type DBConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"loyalty"`
	SQLitePath      string        `env:"DB_SQLITE_PATH" envDefault:"loyalty.db"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	TxMaxAttempts   int           `env:"DB_TX_MAX_ATTEMPTS" envDefault:"4"`
}

// DSN returns the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

// RedisConfig holds cache connection settings. An empty Host disables Redis.
type RedisConfig struct {
	Host     string        `env:"REDIS_HOST"`
	Port     string        `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

// ProgramConfig holds the earning and bonus rules the engine applies. It is
// passed explicitly to the services that need it.
type ProgramConfig struct {
	// Points earned per currency unit spent.
	EarnRate decimal.Decimal `env:"EARN_RATE" envDefault:"1"`
	// Fraction of the purchase amount credited as cashback.
	CashbackRate  decimal.Decimal `env:"CASHBACK_RATE" envDefault:"0"`
	RefereeBonus  int64           `env:"REFEREE_BONUS" envDefault:"50"`
	ReferrerBonus int64           `env:"REFERRER_BONUS" envDefault:"100"`
	VoucherTTL    time.Duration   `env:"VOUCHER_TTL" envDefault:"720h"`
}

// DefaultProgram returns the program rules used when nothing is configured.
func DefaultProgram() ProgramConfig {
	return ProgramConfig{
		EarnRate:      decimal.NewFromInt(1),
		CashbackRate:  decimal.Zero,
		RefereeBonus:  50,
		ReferrerBonus: 100,
		VoucherTTL:    30 * 24 * time.Hour,
	}
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the .env file, then parses the environment into a Config.
func Load() (*Config, error) {
	LoadEnv()
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
				return decimal.NewFromString(v)
			},
		},
	}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value in production")
	}
	return nil
}
