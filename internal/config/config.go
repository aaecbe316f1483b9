package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	ServiceName string

	MySQLDSN string

	RedisAddr    string
	KafkaBrokers []string

	WompiBaseURL         string
	WompiPublicKey       string
	WompiPrivateKey      string
	WompiIntegritySecret string
	WompiEventsSecret    string
	PaymentRedirectURL   string
	Currency             string

	SMTPAddr  string
	EmailFrom string

	JWTSecret         string
	JWTExpiration     time.Duration
	AdminEmail        string
	AdminPasswordHash string

	SweepInterval time.Duration
	SweepMinAge   time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		ServiceName: getenv("SERVICE_NAME", "appstorepro-api"),

		MySQLDSN: getenv("MYSQL_DSN", "app:secret@tcp(mysql:3306)/storefront?parseTime=true"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		KafkaBrokers: splitCSV(getenv("KAFKA_BROKERS", "kafka:9092")),

		WompiBaseURL:         getenv("WOMPI_BASE_URL", "https://sandbox.wompi.co"),
		WompiPublicKey:       getenv("WOMPI_PUBLIC_KEY", ""),
		WompiPrivateKey:      getenv("WOMPI_PRIVATE_KEY", ""),
		WompiIntegritySecret: getenv("WOMPI_INTEGRITY_SECRET", ""),
		WompiEventsSecret:    getenv("WOMPI_EVENTS_SECRET", ""),
		PaymentRedirectURL:   getenv("PAYMENT_REDIRECT_URL", "https://appstorepro.co/checkout/result"),
		Currency:             getenv("CURRENCY", "COP"),

		SMTPAddr:  getenv("SMTP_ADDR", "localhost:2025"),
		EmailFrom: getenv("EMAIL_FROM", "orders@appstorepro.co"),

		JWTSecret:         getenv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiration:     getduration("JWT_EXPIRATION", 12*time.Hour),
		AdminEmail:        getenv("ADMIN_EMAIL", "admin@appstorepro.co"),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),

		SweepInterval: getduration("PAYMENT_SWEEP_INTERVAL", 5*time.Minute),
		SweepMinAge:   getduration("PAYMENT_SWEEP_MIN_AGE", 10*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
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
