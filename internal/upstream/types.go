package upstream

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects which upstream dialect Generate talks to. It is a
// process-wide configuration value, not a per-request one.
type Mode string

const (
	// ModeImages always calls the images-generations endpoint.
	ModeImages Mode = "images"
	// ModeChat always calls the chat-completions endpoint.
	ModeChat Mode = "chat"
	// ModeAuto tries the images endpoint first and falls back to the
	// chat endpoint when the images route answers 404.
	ModeAuto Mode = "auto"
)

// ParseMode parses a dialect mode string. An empty string means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeImages:
		return ModeImages, nil
	case ModeChat:
		return ModeChat, nil
	case ModeAuto, Mode(""):
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown dialect mode %q", s)
}

// OutputMode says what the caller wants done with generated images.
type OutputMode int

const (
	// OutputPath saves images to the output directory and returns paths.
	OutputPath OutputMode = iota
	// OutputInline returns images as attached payloads without touching
	// the filesystem.
	OutputInline
)

func (m OutputMode) String() string {
	if m == OutputInline {
		return "inline"
	}
	return "path"
}

// Request is the canonical, fully normalized description of one
// generation call. It is produced by the request normalizer; nothing
// downstream re-validates these fields.
type Request struct {
	BaseURL string
	APIKey  string
	Model   string
	Prompt  string
	Size    string // always "WIDTHxHEIGHT" form
	Count   int    // always within [1,4]
	Timeout time.Duration
	Output  OutputMode
	OutDir  string // absolute path, meaningful in OutputPath mode
}

// DecodedImage is one generated image after decoding: raw bytes plus
// the MIME type they were declared or inferred to have. Bytes is never
// empty; a zero-byte payload is an error, not an image.
type DecodedImage struct {
	Bytes []byte
	Mime  string
}

// --- images-generations dialect wire types ---

type imagesRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type imagesResponse struct {
	Created int64        `json:"created"`
	Data    []imageDatum `json:"data"`
}

// imageDatum is one item of an images-generations response. Exactly one
// of URL or B64JSON is expected to be set.
type imageDatum struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// --- chat-completions dialect wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Modalities  []string      `json:"modalities"`
	ImageConfig *imageConfig  `json:"image_config,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type imageConfig struct {
	ImageSize string `json:"image_size"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int               `json:"index"`
	FinishReason string            `json:"finish_reason"`
	Message      chatChoiceMessage `json:"message"`
}

type chatChoiceMessage struct {
	Role    string      `json:"role"`
	Content string      `json:"content"`
	Images  []chatImage `json:"images"`
}

// chatImage is one image entry of a chat-completions choice. Upstreams
// have shipped the payload under several field names over time, and
// image_url has been both an object and a bare string, so the struct
// keeps all of them and payload() resolves the winner.
type chatImage struct {
	Type     string          `json:"type,omitempty"`
	ImageURL json.RawMessage `json:"image_url,omitempty"`
	URL      string          `json:"url,omitempty"`
	B64JSON  string          `json:"b64_json,omitempty"`
	Data     string          `json:"data,omitempty"`
}

// payload returns the image reference carried by this entry. Candidate
// fields are tried in a fixed priority order: image_url.url, image_url
// as a bare string, url, b64_json, data. The result is either a URL
// (http, https or data scheme) or a raw base64 payload.
func (img chatImage) payload() string {
	if len(img.ImageURL) > 0 {
		var ref struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(img.ImageURL, &ref); err == nil && ref.URL != "" {
			return ref.URL
		}
		var s string
		if err := json.Unmarshal(img.ImageURL, &s); err == nil && s != "" {
			return s
		}
	}
	if img.URL != "" {
		return img.URL
	}
	if img.B64JSON != "" {
		return img.B64JSON
	}
	return img.Data
}
