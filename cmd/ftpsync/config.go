package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gonzalop/ftpsync"
	"github.com/gonzalop/ftpsync/ftpconn"
)

// config holds the command line settings. Every flag falls back to an
// FTPSYNC_* environment variable.
type config struct {
	URL         string
	User        string
	Password    string
	DownloadDir string
	History     string
	Dirs        []string
	Extensions  []string

	Probe       bool
	Encoding    string
	Timeout     time.Duration
	RateLimit   int64
	DisableEPSV bool

	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// dirList collects repeated -dir flags.
type dirList []string

func (l *dirList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *dirList) Set(value string) error {
	*l = append(*l, strings.TrimSpace(value))
	return nil
}

func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (*config, error) {
	envOr := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	timeout, err := envDuration(getenv, "FTPSYNC_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	rateLimit, err := envInt64(getenv, "FTPSYNC_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}
	probe, err := envBool(getenv, "FTPSYNC_PROBE", false)
	if err != nil {
		return nil, err
	}

	cfg := &config{}
	var dirs dirList
	var extensions string

	fs := flag.NewFlagSet("ftpsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ftpsync [flags] [-dir path]...\n\n")
		fmt.Fprintf(fs.Output(), "Downloads remote files that are not in the download history.\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.URL, "url", envOr("FTPSYNC_URL", ""), "server URL: ftp://, ftps:// or ftp+explicit://host[:port][/path] (FTPSYNC_URL)")
	fs.StringVar(&cfg.User, "user", envOr("FTPSYNC_USER", ""), "user name, anonymous if empty (FTPSYNC_USER)")
	fs.StringVar(&cfg.Password, "password", envOr("FTPSYNC_PASSWORD", ""), "password, prompted if empty on a terminal (FTPSYNC_PASSWORD)")
	fs.StringVar(&cfg.DownloadDir, "out", envOr("FTPSYNC_OUT", ftpsync.DefaultDownloadDir), "local download directory (FTPSYNC_OUT)")
	fs.StringVar(&cfg.History, "history", envOr("FTPSYNC_HISTORY", ""), "download history file, default <out>/download_history.json (FTPSYNC_HISTORY)")
	fs.Var(&dirs, "dir", "remote directory to synchronize, may be repeated; default is the URL path")
	fs.StringVar(&extensions, "ext", envOr("FTPSYNC_EXT", ""), "comma separated extensions to download, e.g. .csv,.gz (FTPSYNC_EXT)")
	fs.BoolVar(&cfg.Probe, "probe", probe, "ask the server for sizes to tell files from directories (FTPSYNC_PROBE)")
	fs.StringVar(&cfg.Encoding, "encoding", envOr("FTPSYNC_ENCODING", ""), "server charset for file names, e.g. latin1, big5 (FTPSYNC_ENCODING)")
	fs.DurationVar(&cfg.Timeout, "timeout", timeout, "network timeout (FTPSYNC_TIMEOUT)")
	fs.Int64Var(&cfg.RateLimit, "rate-limit", rateLimit, "download limit in bytes per second, 0 is unlimited (FTPSYNC_RATE_LIMIT)")
	fs.BoolVar(&cfg.DisableEPSV, "disable-epsv", false, "use PASV only")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("FTPSYNC_LOG_LEVEL", "info"), "debug, info, warn or error (FTPSYNC_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", envOr("FTPSYNC_LOG_FORMAT", "text"), "text or json (FTPSYNC_LOG_FORMAT)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", envOr("FTPSYNC_METRICS_ADDR", ""), "serve Prometheus metrics on this address (FTPSYNC_METRICS_ADDR)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if cfg.URL == "" {
		return nil, errors.New("-url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid -url: %w", err)
	}
	if _, _, err := ftpconn.AddrFromURL(u); err != nil {
		return nil, fmt.Errorf("invalid -url: %w", err)
	}
	if cfg.RateLimit < 0 {
		return nil, errors.New("-rate-limit cannot be negative")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	// User info in the URL only fills what the flags left empty
	if u.User != nil {
		if cfg.User == "" {
			cfg.User = u.User.Username()
		}
		if p, ok := u.User.Password(); ok && cfg.Password == "" {
			cfg.Password = p
		}
	}

	cfg.Dirs = dirs
	if len(cfg.Dirs) == 0 {
		cfg.Dirs = []string{""}
		if u.Path != "" && u.Path != "/" {
			cfg.Dirs[0] = u.Path
		}
	}

	cfg.Extensions = splitExtensions(extensions)

	if cfg.History == "" {
		cfg.History = filepath.Join(cfg.DownloadDir, "download_history.json")
	}

	return cfg, nil
}

// splitExtensions turns "csv, .GZ" into [".csv", ".gz"].
func splitExtensions(s string) []string {
	var out []string
	for ext := range strings.SplitSeq(s, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func envBool(getenv func(string) string, key string, fallback bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt64(getenv func(string) string, key string, fallback int64) (int64, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
