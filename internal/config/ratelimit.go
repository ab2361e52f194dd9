package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-programs/internal/ratelimit"
)

// Rate limit backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// RateLimitConfig configures the sliding window guards on search, submit
// and login endpoints.
type RateLimitConfig struct {
	Enabled     bool
	Backend     string // memory or redis
	Prefix      string // Redis key namespace
	KeyStrategy string // ip, ip_user, ip_route, ip_user_route
	Search      ratelimit.Rule
	Submit      ratelimit.Rule // submit and final-submit
	Login       ratelimit.Rule
}

func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Backend:     strings.ToLower(envStr("RATE_LIMIT_BACKEND", BackendMemory)),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
		KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Search:      envRule("RATE_LIMIT_SEARCH", 10, 10*time.Second),
		Submit:      envRule("RATE_LIMIT_SUBMIT", 5, 10*time.Second),
		Login:       envRule("RATE_LIMIT_LOGIN", 10, time.Minute),
	}
}

// envRule reads <prefix>_MAX and <prefix>_WINDOW. Nonsensical values fall
// back to the defaults.
func envRule(prefix string, max int, window time.Duration) ratelimit.Rule {
	r := ratelimit.Rule{
		Max:    envInt(prefix+"_MAX", max),
		Window: envDur(prefix+"_WINDOW", window),
	}
	if r.Max < 1 {
		r.Max = max
	}
	if r.Window <= 0 {
		r.Window = window
	}
	return r
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
