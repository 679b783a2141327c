package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/pricing"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RedisPrefix           string
	ReportCacheTTLSeconds int
	AuthSecret            string
	AccessTokenTTLMinutes int
	AMQPURL               string
	KitchenExchange       string
	VenueConfigPath       string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL_SECONDS", "3600"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 3600
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "30"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 30
	}

	return Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		RedisPrefix:           getEnv("REDIS_PREFIX", "comanda"),
		ReportCacheTTLSeconds: cacheTTL,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		AMQPURL:               os.Getenv("AMQP_URL"),
		KitchenExchange:       getEnv("KITCHEN_EXCHANGE", "kitchen_topic"),
		VenueConfigPath:       os.Getenv("VENUE_CONFIG"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Venue describes the premises: tax rate, floor layout and the PIN table
// that unlocks administrative roles.
type Venue struct {
	Name    string              `yaml:"name"`
	TaxRate float64             `yaml:"tax_rate"`
	Layout  []domain.AreaLayout `yaml:"layout"`
	PINs    map[string]string   `yaml:"pins"`
}

// venueFile mirrors Venue with the tax rate optional, so an explicit
// tax_rate: 0 is told apart from an omitted one.
type venueFile struct {
	Name    string              `yaml:"name"`
	TaxRate *float64            `yaml:"tax_rate"`
	Layout  []domain.AreaLayout `yaml:"layout"`
	PINs    map[string]string   `yaml:"pins"`
}

// DefaultVenue matches a stock installation. ADMIN_PIN and MANAGER_PIN
// override the built-in PINs.
func DefaultVenue() Venue {
	return Venue{
		Name:    "Comanda",
		TaxRate: pricing.DefaultTaxRate,
		Layout:  domain.DefaultLayout(),
		PINs: map[string]string{
			getEnv("ADMIN_PIN", "0001"):   string(domain.RoleAdmin),
			getEnv("MANAGER_PIN", "9999"): string(domain.RoleManager),
		},
	}
}

// LoadVenue reads a YAML venue file. Fields the file leaves empty keep
// their defaults. An empty path returns the defaults.
func LoadVenue(path string) (Venue, error) {
	venue := DefaultVenue()
	if path == "" {
		return venue, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Venue{}, err
	}
	var file venueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Venue{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Name != "" {
		venue.Name = file.Name
	}
	if file.TaxRate != nil {
		venue.TaxRate = *file.TaxRate
	}
	if len(file.Layout) > 0 {
		venue.Layout = file.Layout
	}
	if len(file.PINs) > 0 {
		venue.PINs = file.PINs
	}
	return venue, venue.Validate()
}

func (v Venue) Validate() error {
	if v.TaxRate < 0 || v.TaxRate >= 1 {
		return fmt.Errorf("tax_rate must be in [0, 1), got %v", v.TaxRate)
	}
	for _, area := range v.Layout {
		if !area.Area.Valid() {
			return fmt.Errorf("unknown area %q", area.Area)
		}
		if area.First < 1 || area.Tables < 1 {
			return fmt.Errorf("area %s needs a positive first table and table count", area.Area)
		}
	}
	if len(v.PINs) == 0 {
		return fmt.Errorf("at least one PIN is required")
	}
	for pin, role := range v.PINs {
		if !IsFourDigitPIN(pin) {
			return fmt.Errorf("PIN for %s must be exactly 4 digits", role)
		}
		if !domain.Role(role).Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	return nil
}

// Roles converts the PIN table to typed roles.
func (v Venue) Roles() map[string]domain.Role {
	out := make(map[string]domain.Role, len(v.PINs))
	for pin, role := range v.PINs {
		out[pin] = domain.Role(role)
	}
	return out
}

func IsFourDigitPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
