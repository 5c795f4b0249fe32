package upstream

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultMime = "image/png"

// decodeImagePayload turns a base64 payload, optionally wrapped in a
// data URI, into a DecodedImage. A data: prefix supplies the MIME type;
// otherwise fallbackMime is used, defaulting to image/png.
func decodeImagePayload(payload, fallbackMime string) (DecodedImage, error) {
	payload = strings.TrimSpace(payload)
	mime := fallbackMime
	if mime == "" {
		mime = defaultMime
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma == -1 {
			return DecodedImage{}, fmt.Errorf("malformed data URI: missing comma separator")
		}
		header := payload[len("data:"):comma]
		if semi := strings.Index(header, ";"); semi != -1 {
			header = header[:semi]
		}
		if header != "" {
			mime = header
		}
		payload = strings.TrimSpace(payload[comma+1:])
	}

	if payload == "" {
		return DecodedImage{}, fmt.Errorf("empty image payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some upstreams omit padding.
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return DecodedImage{}, fmt.Errorf("decode base64 image payload: %w", err)
	}
	if len(data) == 0 {
		return DecodedImage{}, fmt.Errorf("image payload decoded to zero bytes")
	}
	return DecodedImage{Bytes: data, Mime: mime}, nil
}

// isHTTPURL reports whether ref is a fetchable http(s) URL as opposed
// to a data URI or a raw base64 payload.
func isHTTPURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
