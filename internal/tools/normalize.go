package tools

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"imagegen-mcp-server/internal/config"
	"imagegen-mcp-server/internal/upstream"
)

const (
	minCount = 1
	maxCount = 4
)

// outDirKeys are the argument spellings accepted for the output
// directory, tried in order.
var outDirKeys = []string{"output_dir", "outputDir", "out_dir", "outDir"}

// inlineSpellings are the accepted ways callers ask for base64 output
// instead of saved files.
var inlineSpellings = map[string]bool{
	"image":  true,
	"base64": true,
	"b64":    true,
	"data":   true,
	"inline": true,
}

// normalizeRequest coerces the loosely-typed tool arguments into a
// canonical upstream.Request, applying defaults from cfg. Nothing
// downstream sees the untyped form. Pure aside from home-directory
// lookup; no network, no directory creation.
func normalizeRequest(args map[string]interface{}, cfg *config.Config) (upstream.Request, error) {
	prompt, err := normalizePrompt(args["prompt"])
	if err != nil {
		return upstream.Request{}, err
	}

	req := upstream.Request{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Prompt:  prompt,
		Size:    normalizeSize(args["size"], cfg.DefaultSize),
		Count:   normalizeCount(args["n"]),
		Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Output:  normalizeOutputMode(args["output"]),
	}
	req.OutDir = normalizeOutDir(lookupOutDir(args), cfg)
	return req, nil
}

// normalizePrompt accepts a string or a list of strings; list elements
// are joined with a single space. An empty result after trimming is an
// invalid-argument failure.
func normalizePrompt(raw interface{}) (string, error) {
	var prompt string
	switch v := raw.(type) {
	case string:
		prompt = v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		prompt = strings.Join(parts, " ")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errInvalidArgument("prompt required")
	}
	return prompt, nil
}

// normalizeSize expands bare digit sizes to squares: "512" becomes
// "512x512". Other non-empty values pass through untouched; malformed
// sizes are the upstream's to reject.
func normalizeSize(raw interface{}, fallback string) string {
	var size string
	switch v := raw.(type) {
	case string:
		size = strings.TrimSpace(v)
	case float64:
		size = strconv.Itoa(int(v))
	case int:
		size = strconv.Itoa(v)
	}
	if size == "" {
		return fallback
	}
	if isAllDigits(size) {
		return size + "x" + size
	}
	return size
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// normalizeCount parses the requested image count, defaulting to 1 on
// anything unparseable and clamping into [1,4].
func normalizeCount(raw interface{}) int {
	count := 1
	switch v := raw.(type) {
	case float64:
		count = int(v)
	case int:
		count = v
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			count = parsed
		}
	}
	if count < minCount {
		count = minCount
	}
	if count > maxCount {
		count = maxCount
	}
	return count
}

// normalizeOutputMode maps the inline spellings to OutputInline;
// everything else, including absence, means files on disk.
func normalizeOutputMode(raw interface{}) upstream.OutputMode {
	s, _ := raw.(string)
	if inlineSpellings[strings.ToLower(strings.TrimSpace(s))] {
		return upstream.OutputInline
	}
	return upstream.OutputPath
}

func lookupOutDir(args map[string]interface{}) string {
	for _, key := range outDirKeys {
		if s, ok := args[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// normalizeOutDir resolves the output directory: ~ against the home
// directory, relative paths against the project root, absolute paths
// cleaned and passed through. Unset means the configured default.
func normalizeOutDir(dir string, cfg *config.Config) string {
	if dir == "" {
		return cfg.OutputDir
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(cfg.ProjectRoot, dir)
}
