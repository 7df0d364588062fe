package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/repcoach/internal/config"
	"github.com/meltforce/repcoach/internal/mcp"
	"github.com/meltforce/repcoach/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepCoach server URL for remote mode (e.g. https://repcoach.tail1234.ts.net)")
	apiKey := flag.String("api-key", "", "API key for remote writes (or REPCOACH_AUTH_API_KEY)")
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	userID := flag.Int("user", 1, "user ID to scope queries to")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcoach-mcp", Version)
		return
	}

	// stdio transport owns stdout; logs go to stderr
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *serverURL != "" {
		key := *apiKey
		if key == "" {
			key = os.Getenv("REPCOACH_AUTH_API_KEY")
		}
		ds = mcp.NewHTTPClient(strings.TrimRight(*serverURL, "/"), key)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		log.Info("local mode", "database", cfg.Database.Name)
	}

	s := mcp.New(ds, Version, log)

	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, *userID)
	}))
	if err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
