// Package config loads the server configuration once at startup. Nothing
// below cmd/ reads the process environment directly.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials indicates the OAuth client id or secret is not set.
var ErrMissingCredentials = errors.New("OAUTH_GOOGLE_CLIENT_ID and OAUTH_GOOGLE_CLIENT_SECRET must be set")

const (
	DefaultTokenFile    = "./data/gmail-reply-mcp-token.json"
	DefaultHTTPAddr     = "localhost:0"
	DefaultLookbackDays = 5
	DefaultMaxResults   = 5
)

// Config holds everything the server needs to start.
type Config struct {
	OAuthClientID     string
	OAuthClientSecret string
	OAuthURL          string
	TokenFile         string
	HTTPAddr          string

	Unread UnreadConfig

	// SelfAddresses switches role detection from the "me" substring
	// heuristic to exact sender address matching when non-empty.
	SelfAddresses []string
	// RawMIME fetches each thread message as RFC 822 instead of relying on
	// the provider's parsed payload.
	RawMIME bool

	LogLevel slog.Level
}

// UnreadConfig tunes the unread listing.
type UnreadConfig struct {
	LookbackDays int
	MaxResults   int64
}

type lookupFunc func(string) (string, bool)

// Load reads envFile (when not empty) into the environment and builds a
// Config from it.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup lookupFunc) (Config, error) {
	cfg := Config{
		OAuthClientID:     get(lookup, "OAUTH_GOOGLE_CLIENT_ID", ""),
		OAuthClientSecret: get(lookup, "OAUTH_GOOGLE_CLIENT_SECRET", ""),
		OAuthURL:          get(lookup, "OAUTH_URL", ""),
		TokenFile:         get(lookup, "GMAIL_TOKEN_FILE", DefaultTokenFile),
		HTTPAddr:          get(lookup, "HTTP_ADDR", DefaultHTTPAddr),
		SelfAddresses:     splitList(get(lookup, "SELF_ADDRESSES", "")),
	}

	var err error
	if cfg.Unread.LookbackDays, err = getInt(lookup, "UNREAD_LOOKBACK_DAYS", DefaultLookbackDays); err != nil {
		return Config{}, err
	}
	maxResults, err := getInt(lookup, "UNREAD_MAX_RESULTS", DefaultMaxResults)
	if err != nil {
		return Config{}, err
	}
	cfg.Unread.MaxResults = int64(maxResults)

	if v, ok := lookup("THREAD_RAW_MIME"); ok && v != "" {
		if cfg.RawMIME, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("THREAD_RAW_MIME: strconv.ParseBool failed: %w", err)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get(lookup, "LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that have no usable default.
func (c Config) Validate() error {
	if c.OAuthClientID == "" || c.OAuthClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.Unread.LookbackDays <= 0 {
		return fmt.Errorf("unread lookback days must be positive, got %d", c.Unread.LookbackDays)
	}
	if c.Unread.MaxResults <= 0 {
		return fmt.Errorf("unread max results must be positive, got %d", c.Unread.MaxResults)
	}
	return nil
}

func get(lookup lookupFunc, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup lookupFunc, key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: strconv.Atoi failed: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
