package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reply-mcp/internal/config"
)

func parse(t *testing.T, args ...string) (*cobra.Command, *flags) {
	t.Helper()

	cmd := &cobra.Command{}
	f := &flags{}
	bindFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags(args))

	return cmd, f
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "id")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("UNREAD_LOOKBACK_DAYS", "9")
	t.Setenv("THREAD_RAW_MIME", "true")

	cmd, f := parse(t,
		"--unread-days", "3",
		"--self-address", "me@example.com,alias@example.com",
		"--log-level", "debug",
	)

	cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Unread.LookbackDays)
	assert.Equal(t, int64(config.DefaultMaxResults), cfg.Unread.MaxResults)
	assert.Equal(t, []string{"me@example.com", "alias@example.com"}, cfg.SelfAddresses)
	assert.True(t, cfg.RawMIME, "env value is kept when the flag is not set")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "")
	os.Unsetenv("OAUTH_GOOGLE_CLIENT_ID")
	os.Unsetenv("OAUTH_GOOGLE_CLIENT_SECRET")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OAUTH_GOOGLE_CLIENT_ID=file-id\nOAUTH_GOOGLE_CLIENT_SECRET=file-secret\n"), 0600))

	cmd, f := parse(t, "--env-file", envFile)

	cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, "file-id", cfg.OAuthClientID)
	assert.Equal(t, config.DefaultHTTPAddr, cfg.HTTPAddr)
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "")

	cmd, f := parse(t)

	_, err := loadConfig(cmd, f)
	require.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestCreateOauthCfg(t *testing.T) {
	cfg := config.Config{OAuthClientID: "id", OAuthClientSecret: "secret"}

	oc := createOauthCfg("127.0.0.1:8080", cfg)
	assert.Equal(t, "http://127.0.0.1:8080/oauth", oc.RedirectURL)
	assert.Len(t, oc.Scopes, 2)

	cfg.OAuthURL = "https://mcp.example.com/oauth"
	assert.Equal(t, "https://mcp.example.com/oauth", createOauthCfg("127.0.0.1:8080", cfg).RedirectURL)
}
