// Command ftpsync downloads the files of remote FTP directories that are
// not yet in the local download history.
//
// Usage:
//
//	ftpsync -url ftp://ftp.example.com/pub/data -out downloads -ext .csv,.gz
//
// Exit status is 0 on success, 1 when a listing or download failed and 2
// for usage, connection and login errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gonzalop/ftpsync"
	"github.com/gonzalop/ftpsync/ftpconn"
	"github.com/gonzalop/ftpsync/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdin, os.Stderr))
}

func run(args []string, getenv func(string) string, stdin *os.File, stderr io.Writer) int {
	cfg, err := parseConfig(args, getenv, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ftpsync: %v\n", err)
		return 2
	}

	logger := newLogger(cfg, stderr)

	if cfg.User != "" && cfg.Password == "" && term.IsTerminal(int(stdin.Fd())) {
		cfg.Password, err = promptPassword(stdin, stderr, cfg.User)
		if err != nil {
			logger.Error("failed to read password", "error", err)
			return 2
		}
	}

	var collector ftpsync.MetricsCollector
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.New(reg)
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	syncer, err := newSyncer(cfg, logger, collector)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return exitCode(err)
	}
	defer func() {
		if err := syncer.Close(); err != nil {
			logger.Debug("close failed", "error", err)
		}
	}()

	user, password := cfg.User, cfg.Password
	if user == "" {
		user, password = "anonymous", "anonymous@"
	}
	if err := syncer.Login(user, password); err != nil {
		return exitCode(err)
	}

	for _, dir := range cfg.Dirs {
		res, err := syncer.SyncDir(dir)
		if err != nil {
			logger.Error("sync failed", "dir", dir, "error", err)
			return exitCode(err)
		}
		for _, e := range res.Downloaded {
			fmt.Fprintln(os.Stdout, e.Name)
		}
	}

	return 0
}

// newSyncer builds the Syncer and connects it to the server named by the
// configured URL.
func newSyncer(cfg *config, logger *slog.Logger, collector ftpsync.MetricsCollector) (*ftpsync.Syncer, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}
	addr, connOpts, err := ftpconn.AddrFromURL(u)
	if err != nil {
		return nil, err
	}

	connOpts = append(connOpts,
		ftpconn.WithTimeout(cfg.Timeout),
		ftpconn.WithLogger(logger.With("component", "ftpconn")),
		ftpconn.WithEncoding(cfg.Encoding),
		ftpconn.WithBandwidthLimit(cfg.RateLimit),
	)
	if cfg.DisableEPSV {
		connOpts = append(connOpts, ftpconn.WithDisableEPSV())
	}

	opts := []ftpsync.Option{
		ftpsync.WithDialer(func(addr string) (ftpsync.Session, error) {
			return ftpconn.Dial(addr, connOpts...)
		}),
		ftpsync.WithDownloadDir(cfg.DownloadDir),
		ftpsync.WithLedgerFile(cfg.History),
		ftpsync.WithLogger(logger),
		ftpsync.WithHost(addr),
	}
	if cfg.Probe {
		opts = append(opts, ftpsync.WithSizeProbe())
	}
	if len(cfg.Extensions) > 0 {
		opts = append(opts, ftpsync.WithFilter(extensionFilter(cfg.Extensions)))
	}
	if collector != nil {
		opts = append(opts, ftpsync.WithMetrics(collector))
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = append(opts, ftpsync.WithProgress(progressLogger(logger)))
	}

	return ftpsync.New(opts...)
}

// extensionFilter keeps files whose extension is in exts (lower case,
// with the dot).
func extensionFilter(exts []string) func(ftpsync.Entry) bool {
	return func(e ftpsync.Entry) bool {
		return slices.Contains(exts, strings.ToLower(ftpsync.Extension(e.Name)))
	}
}

// progressLogger logs each download at most once per second.
func progressLogger(logger *slog.Logger) ftpsync.ProgressFunc {
	var last time.Time
	return func(e ftpsync.Entry, n int64) {
		if now := time.Now(); now.Sub(last) >= time.Second || n == e.Size {
			last = now
			logger.Debug("download progress", "name", e.Name, "bytes", n, "size", e.Size)
		}
	}
}

func newLogger(cfg *config, w io.Writer) *slog.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func promptPassword(stdin *os.File, stderr io.Writer, user string) (string, error) {
	fmt.Fprintf(stderr, "Password for %s: ", user)
	b, err := term.ReadPassword(int(stdin.Fd()))
	fmt.Fprintln(stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

// exitCode maps connection and login failures to 2 and everything else
// to 1.
func exitCode(err error) int {
	if errors.Is(err, ftpsync.ErrConnection) || errors.Is(err, ftpsync.ErrAuth) {
		return 2
	}
	return 1
}
