// Command genimg drives the image-generation pipeline from the command
// line, without an MCP client attached. It synthesizes the same
// tools/call request the stdio server would receive, so it exercises
// the exact production path: normalizer, upstream client, materializer.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"imagegen-mcp-server/internal/config"
	"imagegen-mcp-server/internal/mcp"
	"imagegen-mcp-server/internal/tools"
	"imagegen-mcp-server/internal/upstream"
)

func main() {
	fs := flag.NewFlagSet("genimg", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "text prompt describing the image (required)")
	size := fs.String("size", "", "image size as WIDTHxHEIGHT, or a bare number for a square")
	n := fs.Int("n", 1, "number of images to generate, 1 to 4")
	output := fs.String("output", "path", "output mode: path saves files, inline prints payload info")
	outDir := fs.String("out-dir", "", "directory for saved images (default from IMAGEGEN_OUTPUT_DIR)")
	envFile := fs.String("env-file", "", "load environment variables from this file first")
	logLevel := fs.String("log-level", "", "logging level (DEBUG, INFO, WARN, ERROR); overrides IMAGEGEN_DEBUG")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "genimg: -prompt is required")
		fs.Usage()
		os.Exit(2)
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading env file %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = parseLogLevel(*logLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	mode, err := upstream.ParseMode(cfg.Dialect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	handler := tools.NewHandler(upstream.NewClient(mode, logger), cfg, logger)

	args := map[string]interface{}{
		"prompt": *prompt,
		"n":      *n,
		"output": *output,
	}
	if *size != "" {
		args["size"] = *size
	}
	if *outDir != "" {
		args["output_dir"] = *outDir
	}

	response := handler.HandleRequest(mcp.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  mcp.RequestParams{Name: "generate_image", Arguments: args},
	})
	if response == nil {
		fmt.Fprintln(os.Stderr, "genimg: no response from handler")
		os.Exit(1)
	}
	if response.Error != nil {
		fmt.Fprintf(os.Stderr, "Error %d: %s\n", response.Error.Code, response.Error.Message)
		os.Exit(1)
	}

	os.Exit(printResult(response.Result))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printResult renders the tool result for a terminal: text items in
// full, attached images as one line each instead of a wall of base64.
// Returns the process exit code.
func printResult(result interface{}) int {
	payload, ok := result.(map[string]interface{})
	if !ok {
		fmt.Fprintln(os.Stderr, "genimg: unexpected result shape")
		return 1
	}
	content, _ := payload["content"].([]map[string]interface{})
	for _, item := range content {
		switch item["type"] {
		case "text":
			fmt.Println(item["text"])
		case "image":
			encoded, _ := item["bytes"].(string)
			fmt.Printf("[attached image: %v, %d base64 chars]\n", item["mimeType"], len(encoded))
		}
	}
	if isErr, _ := payload["isError"].(bool); isErr {
		return 1
	}
	return 0
}
