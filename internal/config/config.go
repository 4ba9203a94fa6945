package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	Database    DatabaseConfig
	JWT         JWTConfig
	Circulation CirculationConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql, postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// CirculationConfig holds the lending policy.
type CirculationConfig struct {
	LoanPeriodDays  int
	MaxRenewals     int
	FineDailyRate   decimal.Decimal
	FineMaxCap      decimal.Decimal // <= 0 disables the cap
	FineCeiling     decimal.Decimal // <= 0 disables the borrowing ceiling
	FinePaymentDays int
	HoldPickupDays  int
	HoldExpiryCron  string
}

// DefaultCirculation returns the policy used when no env overrides are set.
func DefaultCirculation() CirculationConfig {
	return CirculationConfig{
		LoanPeriodDays:  14,
		MaxRenewals:     2,
		FineDailyRate:   decimal.NewFromInt(2),
		FineMaxCap:      decimal.NewFromInt(20),
		FineCeiling:     decimal.NewFromInt(50),
		FinePaymentDays: 30,
		HoldPickupDays:  3,
		HoldExpiryCron:  "@every 15m",
	}
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	circulation, err := loadCirculationConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:     appMode,
		Port:        getEnv("PORT", "3000"),
		Database:    loadDatabaseConfig(appMode),
		JWT:         loadJWTConfig(appMode),
		Circulation: circulation,
	}

	switch config.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", config.Database.Driver)
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, config.Database.Driver)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "library_loanhub"),
		SQLitePath: getEnv(prefix+"SQLITE_PATH", "loanhub.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadCirculationConfig overlays env values on DefaultCirculation.
func loadCirculationConfig() (CirculationConfig, error) {
	c := DefaultCirculation()
	var err error

	if c.LoanPeriodDays, err = getEnvInt("LOAN_PERIOD_DAYS", c.LoanPeriodDays); err != nil {
		return c, err
	}
	if c.MaxRenewals, err = getEnvInt("MAX_RENEWALS", c.MaxRenewals); err != nil {
		return c, err
	}
	if c.FinePaymentDays, err = getEnvInt("FINE_PAYMENT_DAYS", c.FinePaymentDays); err != nil {
		return c, err
	}
	if c.HoldPickupDays, err = getEnvInt("HOLD_PICKUP_DAYS", c.HoldPickupDays); err != nil {
		return c, err
	}
	if c.FineDailyRate, err = getEnvDecimal("FINE_DAILY_RATE", c.FineDailyRate); err != nil {
		return c, err
	}
	if c.FineMaxCap, err = getEnvDecimal("FINE_MAX_CAP", c.FineMaxCap); err != nil {
		return c, err
	}
	if c.FineCeiling, err = getEnvDecimal("FINE_CEILING", c.FineCeiling); err != nil {
		return c, err
	}
	c.HoldExpiryCron = getEnv("HOLD_EXPIRY_CRON", c.HoldExpiryCron)

	if c.LoanPeriodDays <= 0 {
		return c, fmt.Errorf("LOAN_PERIOD_DAYS must be positive, got %d", c.LoanPeriodDays)
	}
	if c.MaxRenewals < 0 {
		return c, fmt.Errorf("MAX_RENEWALS must not be negative, got %d", c.MaxRenewals)
	}
	if c.FinePaymentDays <= 0 {
		return c, fmt.Errorf("FINE_PAYMENT_DAYS must be positive, got %d", c.FinePaymentDays)
	}
	if c.HoldPickupDays <= 0 {
		return c, fmt.Errorf("HOLD_PICKUP_DAYS must be positive, got %d", c.HoldPickupDays)
	}
	if c.FineDailyRate.IsNegative() {
		return c, fmt.Errorf("FINE_DAILY_RATE must not be negative, got %s", c.FineDailyRate)
	}
	return c, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:5173"
	}
	return origins
}
