package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"imagegen-mcp-server/internal/mcp"
)

// maxErrorBodyBytes caps how much of an upstream error body is retained
// for diagnostics.
const maxErrorBodyBytes = 8 * 1024

// ErrNoImages reports that an upstream call succeeded at the HTTP level
// but yielded nothing decodable.
var ErrNoImages = errors.New("no usable image data found in upstream response")

// APIStatusError represents a non-2xx answer from the upstream API,
// keeping the HTTP status and a bounded slice of the response body.
type APIStatusError struct {
	Status int
	Body   string
}

// NewAPIStatusError builds an APIStatusError, truncating oversized
// bodies so a misbehaving upstream cannot bloat logs or RPC payloads.
func NewAPIStatusError(status int, body []byte) *APIStatusError {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return &APIStatusError{Status: status, Body: strings.TrimSpace(string(body))}
}

func (e *APIStatusError) Error() string {
	msg := parseAPIErrorMessage(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("upstream API error: status %d: %s", e.Status, msg)
}

// TransportError represents a failure to talk to the upstream at all:
// dial errors, resets, and deadline expiry. Op is the HTTP method of
// the failed call.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request failed: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was the per-call time budget
// expiring rather than a reachability problem.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsTimeout reports whether err, anywhere in its chain, is a timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	if errors.As(err, &te) && te.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// parseAPIErrorMessage digs a human-readable message out of a JSON
// error body. OpenAI-compatible servers answer either
// {"error":{"message":...}} or a flat {"message":...}; anything else is
// returned as-is.
func parseAPIErrorMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil {
		if wrapped.Error.Message != "" {
			return wrapped.Error.Message
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	return body
}

// MapErrorToJSONRPC converts upstream failures into JSON-RPC error
// objects for the envelope-level surfaces (resource reads and other
// calls that answer with an error member rather than tool content).
func MapErrorToJSONRPC(err error) *mcp.RPCError {
	if err == nil {
		return nil
	}

	var apiErr *APIStatusError
	if errors.As(err, &apiErr) {
		data := map[string]interface{}{"status": apiErr.Status}
		if apiErr.Body != "" {
			data["body"] = apiErr.Body
		}
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return &mcp.RPCError{Code: -32001, Message: "Authentication failed: " + apiErr.Error(), Data: data}
		case http.StatusForbidden:
			return &mcp.RPCError{Code: -32003, Message: "Permission denied: " + apiErr.Error(), Data: data}
		case http.StatusNotFound:
			return &mcp.RPCError{Code: -32002, Message: "Not found: " + apiErr.Error(), Data: data}
		default:
			return &mcp.RPCError{Code: -32000, Message: apiErr.Error(), Data: data}
		}
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return &mcp.RPCError{Code: -32005, Message: "Upstream request timed out: " + transportErr.Error()}
		}
		return &mcp.RPCError{Code: -32004, Message: "Upstream unavailable: " + transportErr.Error()}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &mcp.RPCError{Code: -32005, Message: "Request timed out: " + err.Error()}
	}

	return &mcp.RPCError{Code: -32000, Message: "Internal server error: " + err.Error()}
}
