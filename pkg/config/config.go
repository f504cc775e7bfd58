package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type App struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// public URL used in email links
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@localhost"`

	// DB
	DBDriver string `envconfig:"DB_DRIVER" default:"postgres"` // postgres|sqlite
	DBDSN    string `envconfig:"DB_DSN" required:"true"`

	// JWT
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"10080"`

	// Redis (guest carts, rate limit)
	RedisAddr       string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword   string `envconfig:"REDIS_PASSWORD" default:""`
	GuestCartTTLHr  int    `envconfig:"GUEST_CART_TTL_HR" default:"720"`
	RateLimitPerMin int    `envconfig:"RATE_LIMIT_PER_MIN" default:"20"`

	// Payment
	OmisePub        string            `envconfig:"OMISE_PUBLIC_KEY" default:""`
	OmiseSec        string            `envconfig:"OMISE_SECRET_KEY" default:""`
	PaymentCurrency string            `envconfig:"PAYMENT_CURRENCY" default:"thb"`
	CargoFees       map[string]string `envconfig:"CARGO_FEES" default:"standard:0,express:150"`

	// SMTP
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"Curtain Store <no-reply@localhost>"`

	// Storage
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	CDNEndpoint   string `envconfig:"CDN_ENDPOINT" default:""`
	CDNAPIKey     string `envconfig:"CDN_API_KEY" default:""`
	CDNPublicBase string `envconfig:"CDN_PUBLIC_BASE" default:""`

	// Messaging
	RabbitURL     string `envconfig:"RABBIT_URL" default:""`
	OrderExchange string `envconfig:"ORDER_EXCHANGE" default:"order.exchange"`
	NotifyVia     string `envconfig:"NOTIFY_VIA" default:"mail"` // mail|mq

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

func (a App) SessionTTL() time.Duration { return time.Duration(a.JWTExpireMin) * time.Minute }

func (a App) GuestCartTTL() time.Duration { return time.Duration(a.GuestCartTTLHr) * time.Hour }

func (a App) IsProd() bool { return a.Env == "prod" }

// CargoOption is a shipping carrier and its flat fee.
type CargoOption struct {
	Code string          `json:"code"`
	Fee  decimal.Decimal `json:"fee"`
}

// CargoOptions parses CARGO_FEES, sorted by code.
func (a App) CargoOptions() ([]CargoOption, error) {
	out := make([]CargoOption, 0, len(a.CargoFees))
	for code, raw := range a.CargoFees {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("cargo fee %q: %w", code, err)
		}
		if fee.IsNegative() {
			return nil, fmt.Errorf("cargo fee %q is negative", code)
		}
		out = append(out, CargoOption{Code: code, Fee: fee})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
