package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"imagegen-mcp-server/internal/config"
	"imagegen-mcp-server/internal/mcp"
	"imagegen-mcp-server/internal/tools"
	"imagegen-mcp-server/internal/upstream"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	mode, err := upstream.ParseMode(cfg.Dialect)
	if err != nil {
		slog.Error("Invalid dialect configuration", "error", err)
		os.Exit(1)
	}
	client := upstream.NewClient(mode, logger)

	slog.Info("Starting imagegen MCP bridge on stdio...",
		"base_url", cfg.BaseURL, "model", cfg.Model, "dialect", string(mode), "output_dir", cfg.OutputDir)

	toolHandler := tools.NewHandler(client, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := mcp.NewStdioServer(os.Stdin, os.Stdout, logger)
	server.Start(ctx)

	// Dispatch loop. Requests are handled concurrently so a slow image
	// generation does not block tools/list, with a bound so a request
	// burst cannot pile up goroutines.
	go func() {
		var group errgroup.Group
		group.SetLimit(4)
		for request := range server.ReadChannel() {
			request := request
			group.Go(func() error {
				if responsePtr := toolHandler.HandleRequest(request); responsePtr != nil {
					server.WriteChannel() <- *responsePtr
				}
				return nil
			})
		}
		group.Wait()
		server.Close()
	}()

	server.Wait()
}
