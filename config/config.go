package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"chefbazar/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"https://local-chef-bazar.web.app",
}

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	FirebaseKey    string
	StripeKey      string
	ClientDomain   string
	AllowedOrigins []string
	RedisURL       string
	RedisPassword  string
	LogLevel       string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found; using system environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and checks required values.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:          withDefault(getenv("PORT"), "3000"),
		MongoURI:      getenv("MONGODB_URI"),
		DBName:        withDefault(getenv("DB_NAME"), "MealsDB"),
		FirebaseKey:   getenv("FB_SERVICE_KEY"),
		StripeKey:     getenv("STRIPE_SECRET_KEY"),
		ClientDomain:  strings.TrimRight(withDefault(getenv("CLIENT_DOMAIN"), "http://localhost:5173"), "/"),
		RedisURL:      getenv("REDIS_URL"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		LogLevel:      withDefault(getenv("LOG_LEVEL"), "info"),
	}
	cfg.AllowedOrigins = utils.SplitList(getenv("ALLOWED_ORIGINS"))
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultOrigins
	}

	var missing []string
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if cfg.FirebaseKey == "" {
		missing = append(missing, "FB_SERVICE_KEY")
	}
	if cfg.StripeKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, errors.New("LOG_LEVEL: " + err.Error())
	}
	return cfg, nil
}

// Addr is the listen address for net/http.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
