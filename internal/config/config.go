package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port string

	// BackendURL is the retailer's REST backend.
	BackendURL     string
	BackendTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	SessionSecret string
	CookieSecure  bool

	AllowedOrigins []string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	Shipping ShippingConfig

	ServiceName   string
	TraceExporter string
	OTLPEndpoint  string
}

// ShippingConfig describes one box of flooring for the shipping-rate quote.
type ShippingConfig struct {
	CepOrigem string
	Height    float64
	Width     float64
	Length    float64
	Weight    float64
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  no .env file found, using system environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return &Config{
		Env:            v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		BackendURL:     strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		BackendTimeout: v.GetDuration("BACKEND_TIMEOUT"),

		RedisAddr:     v.GetString("REDIS_HOST"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		SessionTTL:    v.GetDuration("SESSION_TTL"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		CookieSecure:  v.GetBool("COOKIE_SECURE"),

		AllowedOrigins: splitCSV(v.GetString("ALLOWED_ORIGINS")),

		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Currency:            v.GetString("CURRENCY"),

		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioSecure:    v.GetBool("MINIO_SECURE"),

		Shipping: ShippingConfig{
			CepOrigem: v.GetString("SHIPPING_CEP_ORIGEM"),
			Height:    v.GetFloat64("SHIPPING_BOX_HEIGHT"),
			Width:     v.GetFloat64("SHIPPING_BOX_WIDTH"),
			Length:    v.GetFloat64("SHIPPING_BOX_LENGTH"),
			Weight:    v.GetFloat64("SHIPPING_BOX_WEIGHT"),
		},

		ServiceName:   v.GetString("SERVICE_NAME"),
		TraceExporter: v.GetString("OTEL_TRACES_EXPORTER"),
		OTLPEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BACKEND_URL", "http://localhost:3000")
	v.SetDefault("BACKEND_TIMEOUT", 15*time.Second)
	v.SetDefault("REDIS_HOST", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("CURRENCY", "brl")
	v.SetDefault("MINIO_BUCKET", "products")
	v.SetDefault("SHIPPING_CEP_ORIGEM", "01001000")
	v.SetDefault("SHIPPING_BOX_HEIGHT", 10.0)
	v.SetDefault("SHIPPING_BOX_WIDTH", 60.0)
	v.SetDefault("SHIPPING_BOX_LENGTH", 60.0)
	v.SetDefault("SHIPPING_BOX_WEIGHT", 22.5)
	v.SetDefault("SERVICE_NAME", "pisos-storefront")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.IsProduction() && c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required in production"))
	}
	return errors.Join(errs...)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
