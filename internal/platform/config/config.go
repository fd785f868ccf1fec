// Package config builds runtime configuration from environment variables so
// main stays lean. Defaults suit local development; production overrides all
// secrets.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "lgac/pkg/platform/strings"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	Redis RedisConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// SiteURL is the public base URL embedded in verification QR codes and
	// payment callback links.
	SiteURL string

	// CertificateDir is the root of durable certificate document storage.
	CertificateDir string

	// StateName appears in the certificate letterhead.
	StateName string

	// FeeKobo is the fixed application fee in minor currency units.
	FeeKobo int64

	Paystack PaystackConfig
	VerifyMe VerifyMeConfig
}

// RedisConfig configures the NIN credential store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PaystackConfig configures the payment gateway client and webhook check.
type PaystackConfig struct {
	SecretKey     string
	BaseURL       string
	InitTimeout   time.Duration
	VerifyTimeout time.Duration
}

// VerifyMeConfig configures the NIN verification gateway adapter. MockMode is
// the explicit switch for environments without gateway credentials; it is
// never inferred from a missing key.
type VerifyMeConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	MockMode bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          getenv("LGAC_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("LGAC_DATABASE_URL"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("LGAC_REDIS_URL"),
			PoolSize:     getenvInt("LGAC_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("LGAC_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers:   splitNonEmpty(os.Getenv("LGAC_KAFKA_BROKERS")),
		AuditTopic:     getenv("LGAC_AUDIT_TOPIC", "lgac.audit.events"),
		SiteURL:        getenv("LGAC_SITE_URL", "http://127.0.0.1:8080"),
		CertificateDir: getenv("LGAC_CERTIFICATE_DIR", "media"),
		StateName:      getenv("LGAC_STATE_NAME", "Ondo"),
		FeeKobo:        int64(getenvInt("LGAC_FEE_KOBO", 500000)),
		Paystack: PaystackConfig{
			SecretKey:     os.Getenv("PAYSTACK_SECRET_KEY"),
			BaseURL:       getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			InitTimeout:   15 * time.Second,
			VerifyTimeout: 10 * time.Second,
		},
		VerifyMe: VerifyMeConfig{
			APIKey:   os.Getenv("VERIFYME_API_KEY"),
			BaseURL:  getenv("VERIFYME_BASE_URL", "https://api.verifyme.ng"),
			Timeout:  10 * time.Second,
			MockMode: os.Getenv("NIN_VERIFY_MOCK") == "true",
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(s, ","))
}
