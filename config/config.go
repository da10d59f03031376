package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// App holds the runtime configuration loaded from the environment.
type App struct {
	Env  string `envconfig:"GO_ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	StoreBackend  string        `envconfig:"STORE_BACKEND" default:"mongo"`
	MongoURI      string        `envconfig:"MONGODB_URI"`
	MongoDatabase string        `envconfig:"MONGODB_DATABASE" default:"campusdesk"`
	StoreTimeout  time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`

	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	LoginTokenTTL  time.Duration `envconfig:"JWT_LOGIN_TTL" default:"24h"`
	GoogleTokenTTL time.Duration `envconfig:"JWT_FEDERATED_TTL" default:"168h"`

	RedisAddress    string        `envconfig:"REDIS_ADDRESS"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	IssueLimitKey   string        `envconfig:"REDIS_QUEUE_FOR_ISSUE_LIMIT" default:"issue-limit"`
	IssueDailyLimit int           `envconfig:"ISSUE_DAILY_LIMIT" default:"20"`
	IssueLimitTTL   time.Duration `envconfig:"ISSUE_LIMIT_WINDOW" default:"24h"`

	UploadDir   string   `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadMB int64    `envconfig:"MAX_UPLOAD_MB" default:"5"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a App) Production() bool { return a.Env == "production" }

// Load reads an optional .env file, then the process environment.
func Load() (App, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, err
	}
	if err := c.validate(); err != nil {
		return App{}, err
	}
	return c, nil
}

func (a App) validate() error {
	if a.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	switch a.StoreBackend {
	case BackendMongo:
		if a.MongoURI == "" {
			return errors.New("please define the MONGODB_URI environment variable")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", a.StoreBackend)
	}
	if a.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if a.IssueDailyLimit < 0 {
		return errors.New("ISSUE_DAILY_LIMIT must not be negative")
	}
	return nil
}
