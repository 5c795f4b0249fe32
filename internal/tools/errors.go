package tools

import (
	"strings"

	"imagegen-mcp-server/internal/upstream"
)

// invalidArgumentError marks bad caller input. It is never retried and
// always surfaces to the caller verbatim.
type invalidArgumentError struct{ msg string }

func (e *invalidArgumentError) Error() string { return e.msg }

func errInvalidArgument(msg string) error { return &invalidArgumentError{msg: msg} }

// hintFor returns an actionable hint for well-known failure shapes,
// keyed by recognizable substrings of the error text. Empty when
// nothing matches.
func hintFor(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case upstream.IsTimeout(err) || strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return "Hint: the upstream took longer than the configured budget; raise IMAGEGEN_TIMEOUT_MS or request a smaller size."
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "Hint: check IMAGEGEN_BASE_URL and make sure the image service is running."
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return "Hint: check IMAGEGEN_API_KEY; the upstream rejected the credentials."
	case strings.Contains(msg, "no space left") || strings.Contains(msg, "permission denied") || strings.Contains(msg, "read-only file system"):
		return "Hint: check free space and write permissions on the output directory."
	}
	return ""
}

// errorResult wraps a failure into the tool-result error payload: one
// text item flagged with isError, suffixed with a hint when one
// applies. Tool failures travel as content so the calling model sees a
// message it can act on; protocol errors are reserved for malformed
// envelopes.
func errorResult(message string, err error) map[string]interface{} {
	text := message
	if err != nil {
		text = message + ": " + err.Error()
		if hint := hintFor(err); hint != "" {
			text += "\n" + hint
		}
	}
	return map[string]interface{}{
		"isError": true,
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}
}
