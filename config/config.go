package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/qs-lzh/spotlight/internal/util"
)

type Config struct {
	Env         string
	DatabaseDSN string
	Addr        string
	CacheURL    string
	MQURL       string

	JWTSecret string
	SiteURL   string

	ResendAPIKey    string
	MailFrom        string
	SlackWebhookURL string

	// RateLimitFailOpen lets rate-limited endpoints through when the cache
	// is down. The default is to refuse them.
	RateLimitFailOpen bool
	TrustedProxies    []string
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func LoadConfig(envFiles ...string) (*Config, error) {
	if err := util.LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	failOpen, _ := strconv.ParseBool(os.Getenv("RATE_LIMIT_FAIL_OPEN"))
	return &Config{
		Env:               getEnv("APP_ENV", "production"),
		DatabaseDSN:       os.Getenv("DATABASE_DSN"),
		Addr:              getEnv("ADDR", ":4000"),
		CacheURL:          os.Getenv("CACHE_URL"),
		MQURL:             os.Getenv("RABBIT_MQ_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SiteURL:           strings.TrimRight(getEnv("SITE_URL", "https://avlfilm.com"), "/"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		MailFrom:          getEnv("MAIL_FROM", "AVL Film <onboarding@resend.dev>"),
		SlackWebhookURL:   os.Getenv("SLACK_WEBHOOK_URL"),
		RateLimitFailOpen: failOpen,
		TrustedProxies:    splitList(os.Getenv("TRUSTED_PROXIES")),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
