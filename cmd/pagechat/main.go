// Package main provides the pagechat terminal application: a chat
// assistant that answers questions about the web page you have open.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"

	"github.com/entrhq/pagechat/pkg/browser"
	"github.com/entrhq/pagechat/pkg/chat"
	appconfig "github.com/entrhq/pagechat/pkg/config"
	"github.com/entrhq/pagechat/pkg/executor/cli"
	"github.com/entrhq/pagechat/pkg/extract"
	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/settings"
	"github.com/entrhq/pagechat/pkg/storage"
)

const (
	version       = "0.1.0"
	markdownWidth = 80
)

// Flags holds the command line flags.
type Flags struct {
	ConfigPath  string
	Home        string
	Storage     string
	StoragePath string
	Browser     bool
	Headless    bool
	LogStderr   bool
	ShowVersion bool

	// URLs opened on start; the last one becomes the active tab.
	URLs []string
}

func main() {
	flags := parseFlags()

	if flags.ShowVersion {
		fmt.Printf("pagechat v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, flags); err != nil {
		cancel()
		log.Fatalf("Application error: %v", err)
	}
	cancel()
}

// parseFlags parses command line flags. Boolean flags only override the
// config file when given explicitly.
func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "", "Path to config file (default: ~/.pagechat/config.yaml)")
	flag.StringVar(&flags.Home, "home", "", "Profile directory for storage and logs (or set PAGECHAT_HOME)")
	flag.StringVar(&flags.Storage, "storage", "", "Storage backend: auto, file, sqlite or memory (or set PAGECHAT_STORAGE_BACKEND)")
	flag.StringVar(&flags.StoragePath, "storage-path", "", "Storage file path (default: derived from the profile directory)")
	flag.BoolVar(&flags.Browser, "browser", false, "Open pages in a Playwright-controlled Chromium instead of fetching over HTTP")
	flag.BoolVar(&flags.Headless, "headless", true, "Run the browser without a window (with -browser)")
	flag.BoolVar(&flags.LogStderr, "log-stderr", false, "Write logs to stderr instead of the log file")
	flag.BoolVar(&flags.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagechat - chat with the page you are reading\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagechat [options] [url...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PAGECHAT_HOME              Profile directory\n")
		fmt.Fprintf(os.Stderr, "  PAGECHAT_STORAGE_BACKEND   Storage backend\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pagechat https://go.dev/doc/effective_go\n")
		fmt.Fprintf(os.Stderr, "  pagechat -browser -headless=false https://github.com/golang/go\n")
		fmt.Fprintf(os.Stderr, "  pagechat -storage sqlite\n")
	}

	flag.Parse()
	flags.URLs = flag.Args()
	return flags
}

// overrides converts the flags that were set into config overrides.
func (f *Flags) overrides() appconfig.Overrides {
	o := appconfig.Overrides{
		Home:           f.Home,
		StorageBackend: f.Storage,
		StoragePath:    f.StoragePath,
	}
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "browser":
			o.Browser = &f.Browser
		case "headless":
			o.Headless = &f.Headless
		}
	})
	return o
}

// tabSource is what the executor and extractor need from the tab backend.
type tabSource interface {
	cli.Tabs
	extract.Executor
}

// urlTabSource pairs URL-only tabs with the HTTP extraction executor.
type urlTabSource struct {
	*cli.URLTabs
	*extract.DOMExecutor
}

// run wires the application together and runs the REPL until it exits.
func run(ctx context.Context, flags *Flags) error {
	cfg, err := appconfig.Load(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Apply(flags.overrides())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(cfg.Home, flags.LogStderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer logger.Close()
	logger.Infof("pagechat v%s starting (home=%s)", version, cfg.Home)

	store, closer, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closer.Close()

	repo := settings.NewRepository(store, logger.With("settings"))
	router := llm.NewRouter(cfg.BuildFactory(logger.With("llm")), logger.With("router"))

	tabs, shutdown, err := newTabSource(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	extractor := extract.NewExtractor(tabs, nil, logger.With("extract"))
	session := chat.New(chat.Deps{
		Router:    router,
		Settings:  repo,
		Extractor: extractor,
		Store:     store,
		Logger:    logger.With("chat"),
	},
		chat.WithHistoryWindow(cfg.Chat.HistoryWindow),
		chat.WithRequestOptions(cfg.RequestOptions()),
		chat.WithExtractOptions(extract.Options{
			MaxLength: cfg.Extract.MaxLength,
			Exclude:   cfg.Extract.Exclude,
		}),
	)
	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	for _, u := range flags.URLs {
		tab, err := tabs.Open(ctx, u)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", u, err)
		}
		logger.Infof("opened tab %d: %s", tab.ID, tab.URL)
	}
	if tab, ok := tabs.Active(); ok {
		session.RefreshPageContent(ctx, tab)
	}

	opts := []cli.ExecutorOption{}
	if renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	); err == nil {
		opts = append(opts, cli.WithRenderer(renderer))
	} else {
		logger.Warnf("markdown rendering disabled: %v", err)
	}

	executor := cli.NewExecutor(session, repo, tabs, opts...)
	if err := executor.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("executor error: %w", err)
	}
	return nil
}

func newLogger(home string, toStderr bool) (*logging.Logger, error) {
	if toStderr {
		return logging.NewWriterLogger("main", os.Stderr), nil
	}
	logging.SetHome(home)
	return logging.NewLogger("main")
}

// newTabSource returns the Playwright tab manager when the browser is
// enabled and URL tabs fetched over HTTP otherwise.
func newTabSource(cfg *appconfig.Config, logger *logging.Logger) (tabSource, func(), error) {
	if !cfg.Browser.Enabled {
		source := extract.NewHTTPSource(nil, cfg.Extract.UserAgent, cfg.Extract.Timeout)
		return urlTabSource{
			URLTabs:     cli.NewURLTabs(),
			DOMExecutor: extract.NewDOMExecutor(source),
		}, func() {}, nil
	}

	manager := browser.NewTabManager(browser.Options{
		Headless:  cfg.Browser.Headless,
		Timeout:   cfg.Browser.Timeout,
		UserAgent: cfg.Extract.UserAgent,
	}, logger.With("browser"))
	if err := manager.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return manager, func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}, nil
}
