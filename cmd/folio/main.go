package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/folio"
	"github.com/eringen/folio/cms"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger := log.New("folio")
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(logger, os.Args[2:])
	case "build":
		err = runBuild(logger, os.Args[2:])
	case "pages":
		err = runPages(logger)
	case "purge":
		err = runPurge(logger, os.Args[2:])
	case "version":
		fmt.Printf("folio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(logger *log.Logger) (folio.SiteConfig, error) {
	cfg, err := folio.LoadConfig(logger)
	if err != nil {
		return folio.SiteConfig{}, err
	}
	logger.SetLevel(folio.ParseLogLevel(cfg.LogLevel))
	return cfg, nil
}

func runServe(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (overrides ADDR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	app := folio.New(cfg, folio.DefaultViews(cfg))
	app.Echo.Logger = logger
	defer app.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("starting server on %s", cfg.Addr)
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		return err
	case sig := <-sigChan:
		logger.Infof("received signal %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	logger.Info("server stopped")
	return nil
}

func runBuild(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	count := fs.Int("count", 0, "number of posts to prepare (overrides PRERENDER_COUNT)")
	banners := fs.Bool("banners", false, "copy banners into STATIC_DIR (overrides LOCALIZE_BANNERS)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if *count > 0 {
		cfg.PrerenderCount = *count
	}

	store, err := folio.NewStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open page store: %w", err)
	}
	defer store.Close()

	gen := &folio.Generator{
		Source: cms.NewClient(cfg.CMSEndpoint, cfg.CMSAccessToken, cms.WithTimeout(cfg.HTTPTimeout)),
		Store:  store,
		Count:  cfg.PrerenderCount,
		Logger: logger,
	}
	if cfg.LocalizeBanners || *banners {
		gen.Localizer = folio.NewBannerLocalizer(cfg.StaticDir, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infof("prepared %d posts, %d failed", len(report.Generated), len(report.Failed))
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d posts failed, first: %v", len(report.Failed), report.Failed[0])
	}
	return nil
}

func openStore(logger *log.Logger) (*folio.Store, error) {
	cfg, err := loadConfig(logger)
	if err != nil {
		return nil, err
	}
	store, err := folio.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open page store: %w", err)
	}
	return store, nil
}

func runPages(logger *log.Logger) error {
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	pages, err := store.ListPages()
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tPUBLISHED\tSTORED\tTITLE")
	for _, p := range pages {
		published := p.PublishedAt
		if published == "" {
			published = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.UID, published, p.GeneratedAt.Format(time.RFC3339), p.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d pages\n", len(pages))
	return nil
}

func runPurge(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	all := fs.Bool("all", false, "remove every stored page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	uids := fs.Args()
	if !*all && len(uids) == 0 {
		return errors.New("purge: give post uids or -all")
	}

	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if *all {
		n, err := store.DeleteAll()
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		logger.Infof("removed %d pages", n)
		return nil
	}
	for _, uid := range uids {
		if err := store.DeletePost(uid); err != nil {
			return fmt.Errorf("purge %s: %w", uid, err)
		}
		logger.Infof("removed %s", uid)
	}
	return nil
}

func printUsage() {
	fmt.Println(`folio - a blog front-end for a headless CMS, built with Go, Echo, and templ

Usage:
  folio <command> [flags]

Commands:
  serve         Serve the site (flags: -addr)
  build         Prepare post pages into the page store (flags: -count, -banners)
  pages         List the pages in the page store
  purge         Remove stored pages by uid, or all of them (flags: -all)
  version       Print the folio version
  help          Show this help message

Configuration is read from the environment and an optional .env file;
CMS_ENDPOINT is required, SESSION_SECRET is required for serve.

Examples:
  folio build -count 10
  folio purge my-first-post
  folio serve -addr :8080`)
}
