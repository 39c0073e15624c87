package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/farellandr/homestay/internal/models"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	App     App
	HTTP    HTTP
	Log     Log
	DB      DB
	JWT     JWT
	Auth    Auth
	Redis   Redis
	Kafka   Kafka
	Booking Booking
	Payment Payment
	QR      QR
	Admin   Admin
}

type App struct {
	Name string `env:"APP_NAME" env-default:"homestay-api"`
	Env  string `env:"APP_ENV" env-default:"development"`
}

type HTTP struct {
	Port string `env:"PORT" env-default:"8080"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

type DB struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"homestay"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

type JWT struct {
	Secret string        `env:"JWT_SECRET" env-required:"true"`
	TTL    time.Duration `env:"JWT_TTL" env-default:"24h"`
}

// Auth covers account email verification and password reset.
type Auth struct {
	EmailOTPTTL     time.Duration `env:"AUTH_EMAIL_OTP_TTL" env-default:"15m"`
	ResetTokenTTL   time.Duration `env:"AUTH_RESET_TOKEN_TTL" env-default:"1h"`
	ResetCooldown   time.Duration `env:"AUTH_RESET_COOLDOWN" env-default:"30s"`
	RateLimit       int64         `env:"AUTH_RATE_LIMIT" env-default:"5"`
	RateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" env-default:"1m"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_TOPIC" env-default:"homestay-notifications"`
}

type Booking struct {
	CredentialKind string        `env:"BOOKING_CREDENTIAL_KIND" env-default:"otp"`
	OTPTTL         time.Duration `env:"BOOKING_OTP_TTL" env-default:"15m"`
	TokenTTL       time.Duration `env:"BOOKING_TOKEN_TTL" env-default:"24h"`
	MaxNights      int           `env:"BOOKING_MAX_NIGHTS" env-default:"365"`
	MaxTotalPrice  int64         `env:"BOOKING_MAX_TOTAL_PRICE" env-default:"99999999999"`
}

type Payment struct {
	BankName        string `env:"PAYMENT_BANK_NAME" env-default:"Vietcombank"`
	AccountNumber   string `env:"PAYMENT_ACCOUNT_NUMBER"`
	AccountName     string `env:"PAYMENT_ACCOUNT_NAME"`
	ReferencePrefix string `env:"PAYMENT_REFERENCE_PREFIX" env-default:"HS"`
	// ReferenceSecret keys the reference HMAC; JWT_SECRET is used when empty.
	ReferenceSecret string `env:"PAYMENT_REFERENCE_SECRET"`
}

type QR struct {
	Dir        string `env:"QR_DIR" env-default:"./uploads/qrcodes"`
	PublicPath string `env:"QR_PUBLIC_PATH" env-default:"/uploads/qrcodes"`
	Size       int    `env:"QR_SIZE" env-default:"300"`
}

// Admin.Email receives payment-approval notifications.
type Admin struct {
	Email        string `env:"ADMIN_EMAIL" env-default:"admin@homestay.local"`
	SeedPassword string `env:"ADMIN_SEED_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	switch models.CredentialKind(cfg.Booking.CredentialKind) {
	case models.CredentialOTP, models.CredentialToken:
	default:
		return nil, fmt.Errorf("BOOKING_CREDENTIAL_KIND must be %q or %q", models.CredentialOTP, models.CredentialToken)
	}

	if cfg.Payment.ReferenceSecret == "" {
		cfg.Payment.ReferenceSecret = cfg.JWT.Secret
	}

	return cfg, nil
}

func (c DB) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := SeedRoles(db); err != nil {
		return nil, err
	}

	return db, nil
}
