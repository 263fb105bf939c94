// Gmail reply MCP server lists unread mail, prepares thread context for
// drafting replies and sends replies through Model Context Protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reply-mcp/internal/auth"
	"github.com/hal9000y/gmail-reply-mcp/internal/config"
	"github.com/hal9000y/gmail-reply-mcp/internal/format"
	"github.com/hal9000y/gmail-reply-mcp/internal/gservice"
	"github.com/hal9000y/gmail-reply-mcp/internal/metrics"
	"github.com/hal9000y/gmail-reply-mcp/internal/thread"
	"github.com/hal9000y/gmail-reply-mcp/internal/tool"
)

type flags struct {
	envFile     string
	httpAddr    string
	tokenFile   string
	oauthURL    string
	enableStdio bool
	logFile     string
	logLevel    string
	unreadDays  int
	unreadMax   int64
	selfAddrs   []string
	rawMIME     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "gmail-reply-mcp",
		Short: "MCP server for reading and replying to Gmail threads",
		Long: `gmail-reply-mcp exposes three MCP tools backed by Gmail:

  list_unread          unread primary inbox mail from the last days
  draft_reply_context  a cleaned thread ready for drafting a reply
  send_reply           sends a reply to the right counterpart of a thread

It always serves MCP over streamable HTTP on /mcp and can additionally serve
stdio. The OAuth consent flow is handled on /oauth.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cfg, f)
		},
	}

	bindFlags(cmd, f)

	return cmd
}

func bindFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	fs.StringVar(&f.envFile, "env-file", "", "Path to env file")
	fs.StringVar(&f.httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP server listen addr")
	fs.StringVar(&f.tokenFile, "oauth-token-file", config.DefaultTokenFile, "Path to cache google oauth token, empty to avoid storing")
	fs.StringVar(&f.oauthURL, "oauth-url", "", "OAuth redirect URL, defaults to http://<listen addr>/oauth")
	fs.BoolVar(&f.enableStdio, "stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	fs.StringVar(&f.logFile, "log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.IntVar(&f.unreadDays, "unread-days", config.DefaultLookbackDays, "How many days back list_unread looks")
	fs.Int64Var(&f.unreadMax, "unread-max", config.DefaultMaxResults, "Maximum messages list_unread fetches")
	fs.StringSliceVar(&f.selfAddrs, "self-address", nil, "Mailbox owner address, repeatable; replaces the \"me\" substring heuristic")
	fs.BoolVar(&f.rawMIME, "raw-mime", false, "Fetch thread messages as RFC 822 and parse them locally")
}

// loadConfig reads env (and the env file) first, explicitly set flags win.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("config.Load failed: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("http-addr") {
		cfg.HTTPAddr = f.httpAddr
	}
	if fs.Changed("oauth-token-file") {
		cfg.TokenFile = f.tokenFile
	}
	if fs.Changed("oauth-url") {
		cfg.OAuthURL = f.oauthURL
	}
	if fs.Changed("unread-days") {
		cfg.Unread.LookbackDays = f.unreadDays
	}
	if fs.Changed("unread-max") {
		cfg.Unread.MaxResults = f.unreadMax
	}
	if fs.Changed("self-address") {
		cfg.SelfAddresses = f.selfAddrs
	}
	if fs.Changed("raw-mime") {
		cfg.RawMIME = f.rawMIME
	}
	if fs.Changed("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.logLevel)); err != nil {
			return config.Config{}, fmt.Errorf("--log-level: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func run(cfg config.Config, f *flags) error {
	logger, closeLogs, err := setupLogger(f.enableStdio, f.logFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLogs()

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	oauthCfg := createOauthCfg(ln.Addr().String(), cfg)

	tok, err := auth.NewToken(oauthCfg, cfg.TokenFile, logger)
	if err != nil {
		return fmt.Errorf("auth.NewToken failed: %w", err)
	}

	defer func() {
		logger.Info("persisting token if exists")
		if err := tok.Persist(); err != nil {
			logger.Error("tok.Persist failed", "error", err)
		}
	}()

	m := metrics.New()

	classifier := thread.DefaultClassifier
	if len(cfg.SelfAddresses) > 0 {
		classifier = thread.AddressClassifier(cfg.SelfAddresses...)
	}

	gmailSvc := gservice.NewGmail(tok, logger)
	gmailT := tool.NewServer(gmailSvc, &format.Converter{}, tool.Options{
		LookbackDays: cfg.Unread.LookbackDays,
		MaxResults:   cfg.Unread.MaxResults,
		RawMIME:      cfg.RawMIME,
		Classifier:   classifier,
		Metrics:      m,
		Logger:       logger,
	})
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return gmailT }, nil)

	mux := http.NewServeMux()
	mux.Handle("/oauth", auth.NewHTTPHandler(tok, logger))
	mux.Handle("/mcp", mcpHTTP)
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	if _, err := tok.OAuthToken(); errors.Is(err, auth.ErrTokenNotSet) {
		openBrowser(oauthCfg.RedirectURL, logger)
	}

	stopHTTP, errHTTPCh := serveHTTP(srv, ln, logger)
	defer stopHTTP()

	var errStdioCh <-chan error
	if f.enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(gmailT, logger)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		logger.Error("http server failed", "error", err)
		return err
	case err := <-errStdioCh:
		if err != nil {
			logger.Error("stdio transport failed", "error", err)
		}
		return err
	case <-shutdown:
		logger.Info("shutdown signal received")
	}

	return nil
}

func serveStdio(srv *mcp.Server, logger *slog.Logger) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		logger.Info("starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			errStdioCh <- fmt.Errorf("srv.Run failed: %w", err)
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		logger.Info("stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener, logger *slog.Logger) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		logger.Info("starting http server", "addr", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errHTTPCh <- fmt.Errorf("srv.Serve failed: %w", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("srv.Shutdown failed", "error", err)
		}

		<-errHTTPCh
		logger.Info("http server stopped")
	}, errHTTPCh
}

func createOauthCfg(lnAddr string, cfg config.Config) *oauth2.Config {
	oauthURL := fmt.Sprintf("http://%s/oauth", lnAddr)
	if cfg.OAuthURL != "" {
		oauthURL = cfg.OAuthURL
	}

	return &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  oauthURL,
		Scopes:       []string{gmail.GmailReadonlyScope, gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
}

// setupLogger keeps stdout free for MCP when stdio is enabled.
func setupLogger(enableStdio bool, logFile string, level slog.Level) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: level}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("os.OpenFile failed: %w", err)
		}
		logger := slog.New(slog.NewTextHandler(f, opts))

		return logger, func() {
			if err := f.Close(); err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("f.Close failed: %w", err))
			}
		}, nil
	}

	var w io.Writer = os.Stdout
	if enableStdio {
		w = io.Discard
	}

	return slog.New(slog.NewTextHandler(w, opts)), func() {}, nil
}

func openBrowser(url string, logger *slog.Logger) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		logger.Warn("could not open browser automatically, open the link manually", "error", err, "url", url)
	}
}
