package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/jplatte/hinoki/internal/config"
	"github.com/jplatte/hinoki/internal/server"
	"github.com/jplatte/hinoki/internal/site"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.toml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Drafts bool `help:"Include draft files in the output"`
	} `cmd:"" help:"Build the site into the output directory"`

	DumpMetadata struct {
		Drafts bool `help:"Include draft files in the dump"`
	} `cmd:"" help:"Resolve and print the content metadata tree without building"`

	Serve struct {
		Port   int  `short:"p" help:"Port to listen on" default:"8000"`
		Open   bool `help:"Open the served site in the default browser"`
		Drafts bool `help:"Include draft files in the output"`
	} `cmd:"" help:"Build the site, serve it locally and rebuild on changes"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "build":
		if err := site.Build(cfg, CLI.Build.Drafts); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "dump-metadata":
		if err := site.DumpMetadata(cfg, CLI.DumpMetadata.Drafts, os.Stdout); err != nil {
			slog.Error("Metadata dump failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := server.Options{Port: CLI.Serve.Port, Open: CLI.Serve.Open}
		buildSite := func() error { return site.Build(cfg, CLI.Serve.Drafts) }
		if err := server.Run(runCtx, cfg, opts, buildSite); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	}
}
