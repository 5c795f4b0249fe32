package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Generator is the one operation the tool layer needs from this
// package. The tool handler depends on this interface so tests can
// substitute MockGenerator for the real HTTP client.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]DecodedImage, error)
}

// Client talks to an OpenAI-compatible image upstream over HTTP. It is
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	mode       Mode
	logger     *slog.Logger
}

var _ Generator = (*Client)(nil)

// NewClient creates a Client speaking the given dialect mode. Per-call
// deadlines come from request contexts, so the underlying http.Client
// carries no timeout of its own.
func NewClient(mode Mode, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{},
		mode:       mode,
		logger:     logger,
	}
}

// Generate produces the requested images, dispatching on the configured
// dialect. In auto mode the images endpoint is tried first and the chat
// endpoint is used only when the images route answers 404; any other
// failure propagates without a second attempt.
func (c *Client) Generate(ctx context.Context, req Request) ([]DecodedImage, error) {
	switch c.mode {
	case ModeImages:
		return c.generateViaImages(ctx, req)
	case ModeChat:
		return c.generateViaChat(ctx, req)
	default:
		images, err := c.generateViaImages(ctx, req)
		if err != nil {
			var apiErr *APIStatusError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
				c.logger.Info("Images endpoint not found, falling back to chat dialect",
					"baseURL", req.BaseURL)
				return c.generateViaChat(ctx, req)
			}
			return nil, err
		}
		return images, nil
	}
}

// generateViaImages issues one batched call to the images-generations
// endpoint. Items that cannot be decoded are skipped individually; the
// call fails only when every item is unusable.
func (c *Client) generateViaImages(ctx context.Context, req Request) ([]DecodedImage, error) {
	endpoint := strings.TrimRight(req.BaseURL, "/") + "/v1/images/generations"
	payload := imagesRequest{
		Model:          req.Model,
		Prompt:         req.Prompt,
		Size:           req.Size,
		N:              req.Count,
		ResponseFormat: "b64_json",
	}

	var parsed imagesResponse
	if err := c.postJSON(ctx, req, endpoint, payload, &parsed); err != nil {
		return nil, err
	}

	images := make([]DecodedImage, 0, len(parsed.Data))
	for i, item := range parsed.Data {
		img, err := c.resolveImageRef(ctx, req, refFromDatum(item))
		if err != nil {
			var transportErr *TransportError
			if errors.As(err, &transportErr) {
				return nil, err
			}
			c.logger.Warn("Skipping unusable image item", "index", i, "error", err)
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("images endpoint: %w", ErrNoImages)
	}
	return images, nil
}

// generateViaChat collects images through the chat-completions
// endpoint. The chat dialect yields at most one small batch per call,
// so up to Count sequential calls are issued, stopping early once
// enough images have accumulated. A mid-loop failure propagates along
// with whatever was collected before it.
func (c *Client) generateViaChat(ctx context.Context, req Request) ([]DecodedImage, error) {
	endpoint := strings.TrimRight(req.BaseURL, "/") + "/v1/chat/completions"
	images := make([]DecodedImage, 0, req.Count)

	for call := 0; call < req.Count && len(images) < req.Count; call++ {
		payload := chatRequest{
			Model:       req.Model,
			Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
			Stream:      false,
			Modalities:  []string{"image"},
			ImageConfig: &imageConfig{ImageSize: req.Size},
		}

		var parsed chatResponse
		if err := c.postJSON(ctx, req, endpoint, payload, &parsed); err != nil {
			return images, err
		}

		for _, choice := range parsed.Choices {
			for _, entry := range choice.Message.Images {
				if len(images) >= req.Count {
					break
				}
				ref := entry.payload()
				if ref == "" {
					continue
				}
				img, err := c.resolveImageRef(ctx, req, ref)
				if err != nil {
					var transportErr *TransportError
					if errors.As(err, &transportErr) {
						return images, err
					}
					c.logger.Warn("Skipping unusable chat image entry", "error", err)
					continue
				}
				images = append(images, img)
			}
		}
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("chat endpoint: %w", ErrNoImages)
	}
	if len(images) > req.Count {
		images = images[:req.Count]
	}
	return images, nil
}

// resolveImageRef turns one image reference into decoded bytes. Data
// URIs and raw base64 decode locally; http(s) URLs are fetched with a
// secondary GET.
func (c *Client) resolveImageRef(ctx context.Context, req Request, ref string) (DecodedImage, error) {
	if ref == "" {
		return DecodedImage{}, fmt.Errorf("image item carried no payload or URL")
	}
	if isHTTPURL(ref) {
		return c.fetchImage(ctx, req, ref)
	}
	return decodeImagePayload(ref, "")
}

// refFromDatum picks the payload of an images-endpoint item: the
// base64 body when present, else the remote URL.
func refFromDatum(item imageDatum) string {
	if item.B64JSON != "" {
		return item.B64JSON
	}
	return item.URL
}

// postJSON sends one JSON request under the per-call time budget and
// decodes a 2xx answer into out. Non-2xx answers become APIStatusError,
// transport failures become TransportError.
func (c *Client) postJSON(ctx context.Context, req Request, endpoint string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal upstream request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	c.logger.Debug("Calling upstream", "endpoint", endpoint, "model", req.Model, "timeout", req.Timeout)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Op: http.MethodPost, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return NewAPIStatusError(resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

// fetchImage retrieves image bytes from a URL the upstream handed back
// instead of an inline payload. The MIME type comes from Content-Type,
// defaulting to image/png when the header is absent.
func (c *Client) fetchImage(ctx context.Context, req Request, imageURL string) (DecodedImage, error) {
	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return DecodedImage{}, fmt.Errorf("build image fetch request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return DecodedImage{}, &TransportError{Op: http.MethodGet, URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return DecodedImage{}, NewAPIStatusError(resp.StatusCode, raw)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return DecodedImage{}, &TransportError{Op: http.MethodGet, URL: imageURL, Err: err}
	}
	if len(data) == 0 {
		return DecodedImage{}, fmt.Errorf("fetched image is empty: %s", imageURL)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i != -1 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = defaultMime
	}
	return DecodedImage{Bytes: data, Mime: mime}, nil
}
