package tools

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"imagegen-mcp-server/internal/config"
	"imagegen-mcp-server/internal/upstream"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL:      "http://upstream.test",
		APIKey:       "test-key",
		Model:        "gpt-image-1",
		DefaultSize:  "1024x1024",
		Dialect:      "auto",
		OutputDir:    filepath.Join(t.TempDir(), "generated-images"),
		ProjectRoot:  t.TempDir(),
		InlineBudget: 512 * 1024,
		TimeoutMs:    5000,
	}
}

func TestNormalizePrompt(t *testing.T) {
	testCases := []struct {
		name    string
		raw     interface{}
		want    string
		wantErr bool
	}{
		{name: "plain string", raw: "a red circle", want: "a red circle"},
		{name: "string is trimmed", raw: "  padded  ", want: "padded"},
		{name: "list joined with single space", raw: []interface{}{"a red", "circle"}, want: "a red circle"},
		{name: "non-string list elements skipped", raw: []interface{}{"keep", 42, "these"}, want: "keep these"},
		{name: "missing", raw: nil, wantErr: true},
		{name: "empty string", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "empty list", raw: []interface{}{}, wantErr: true},
		{name: "wrong type", raw: 12.5, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizePrompt(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !strings.Contains(err.Error(), "prompt required") {
					t.Errorf("error = %q, want it to mention prompt required", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("prompt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeSize(t *testing.T) {
	testCases := []struct {
		name string
		raw  interface{}
		want string
	}{
		{name: "absent uses default", raw: nil, want: "1024x1024"},
		{name: "bare digits expand to square", raw: "512", want: "512x512"},
		{name: "explicit WxH passes through", raw: "1024x1792", want: "1024x1792"},
		{name: "number expands to square", raw: float64(768), want: "768x768"},
		{name: "whitespace trimmed", raw: "  256  ", want: "256x256"},
		{name: "malformed passes through", raw: "huge", want: "huge"},
		{name: "empty string uses default", raw: "", want: "1024x1024"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeSize(tc.raw, "1024x1024"); got != tc.want {
				t.Errorf("normalizeSize(%v) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeCount(t *testing.T) {
	testCases := []struct {
		raw  interface{}
		want int
	}{
		{nil, 1},
		{float64(3), 3},
		{float64(0), 1},
		{float64(99), 4},
		{float64(-2), 1},
		{"2", 2},
		{" 4 ", 4},
		{"junk", 1},
		{true, 1},
	}
	for _, tc := range testCases {
		if got := normalizeCount(tc.raw); got != tc.want {
			t.Errorf("normalizeCount(%v) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeOutputMode(t *testing.T) {
	inline := []interface{}{"image", "base64", "b64", "data", "inline", "INLINE", " Base64 "}
	for _, raw := range inline {
		if got := normalizeOutputMode(raw); got != upstream.OutputInline {
			t.Errorf("normalizeOutputMode(%v) = %v, want inline", raw, got)
		}
	}
	path := []interface{}{nil, "", "path", "file", "files", 7}
	for _, raw := range path {
		if got := normalizeOutputMode(raw); got != upstream.OutputPath {
			t.Errorf("normalizeOutputMode(%v) = %v, want path", raw, got)
		}
	}
}

func TestNormalizeOutDir(t *testing.T) {
	cfg := testConfig(t)
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	testCases := []struct {
		name string
		dir  string
		want string
	}{
		{name: "empty uses configured default", dir: "", want: cfg.OutputDir},
		{name: "absolute passes through", dir: "/var/tmp/images", want: "/var/tmp/images"},
		{name: "relative resolves against project root", dir: "out/images", want: filepath.Join(cfg.ProjectRoot, "out", "images")},
		{name: "tilde resolves against home", dir: "~/images", want: filepath.Join(home, "images")},
		{name: "bare tilde is home", dir: "~", want: home},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeOutDir(tc.dir, cfg); got != tc.want {
				t.Errorf("normalizeOutDir(%q) = %q, want %q", tc.dir, got, tc.want)
			}
		})
	}
}

func TestNormalizeRequest_OutDirKeySpellings(t *testing.T) {
	cfg := testConfig(t)
	for _, key := range []string{"output_dir", "outputDir", "out_dir", "outDir"} {
		args := map[string]interface{}{"prompt": "x", key: "/data/images"}
		req, err := normalizeRequest(args, cfg)
		if err != nil {
			t.Fatalf("key %s: %v", key, err)
		}
		if req.OutDir != "/data/images" {
			t.Errorf("key %s: OutDir = %q", key, req.OutDir)
		}
	}
}

func TestNormalizeRequest_Defaults(t *testing.T) {
	cfg := testConfig(t)
	req, err := normalizeRequest(map[string]interface{}{"prompt": "a red circle"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if req.Prompt != "a red circle" {
		t.Errorf("Prompt = %q", req.Prompt)
	}
	if req.Size != "1024x1024" {
		t.Errorf("Size = %q", req.Size)
	}
	if req.Count != 1 {
		t.Errorf("Count = %d", req.Count)
	}
	if req.Output != upstream.OutputPath {
		t.Errorf("Output = %v", req.Output)
	}
	if req.OutDir != cfg.OutputDir {
		t.Errorf("OutDir = %q", req.OutDir)
	}
	if req.BaseURL != cfg.BaseURL || req.APIKey != cfg.APIKey || req.Model != cfg.Model {
		t.Error("upstream connection fields should come from config")
	}
}

func TestNormalizeSize_SquareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8192).Draw(t, "n")
		s := strconv.Itoa(n)
		want := s + "x" + s
		if got := normalizeSize(s, "1024x1024"); got != want {
			t.Fatalf("normalizeSize(%q) = %q, want %q", s, got, want)
		}
	})
}

func TestNormalizeCount_AlwaysClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.Float64Range(-1000, 1000).Draw(t, "raw")
		got := normalizeCount(raw)
		if got < minCount || got > maxCount {
			t.Fatalf("normalizeCount(%v) = %d, outside [%d,%d]", raw, got, minCount, maxCount)
		}
	})
}

// Normalization must be a fixed point: feeding a canonical request's
// own fields back through the normalizer changes nothing.
func TestNormalizeRequest_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	rapid.Check(t, func(t *rapid.T) {
		args := map[string]interface{}{
			"prompt": rapid.StringMatching(`[a-zA-Z][a-zA-Z0-9 ,.]{0,40}[a-zA-Z]`).Draw(t, "prompt"),
			"size": rapid.OneOf(
				rapid.StringMatching(`[1-9][0-9]{1,3}`),
				rapid.SampledFrom([]string{"", "1024x1792", "512x512", "banner"}),
			).Draw(t, "size"),
			"n":      float64(rapid.IntRange(-3, 9).Draw(t, "n")),
			"output": rapid.SampledFrom([]string{"", "path", "inline", "image", "base64", "b64", "data", "files"}).Draw(t, "output"),
		}

		first, err := normalizeRequest(args, cfg)
		if err != nil {
			t.Fatalf("first pass: %v", err)
		}

		echo := map[string]interface{}{
			"prompt":     first.Prompt,
			"size":       first.Size,
			"n":          first.Count,
			"output":     first.Output.String(),
			"output_dir": first.OutDir,
		}
		second, err := normalizeRequest(echo, cfg)
		if err != nil {
			t.Fatalf("second pass: %v", err)
		}
		if first != second {
			t.Fatalf("not a fixed point:\nfirst:  %+v\nsecond: %+v", first, second)
		}
	})
}
