package tools

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"imagegen-mcp-server/internal/upstream"
	"imagegen-mcp-server/internal/utils"
)

// materializeResult turns the decoded images into the tool result
// payload. Path mode writes files under one batch identifier and
// reports their locations; inline mode never touches the filesystem.
// In both modes, images within the inlining budget are additionally
// attached as raw payloads.
func (h *Handler) materializeResult(images []upstream.DecodedImage, req upstream.Request) map[string]interface{} {
	content := make([]map[string]interface{}, 0, len(images)+1)

	if req.Output == upstream.OutputInline {
		content = append(content, map[string]interface{}{
			"type": "text",
			"text": fmt.Sprintf("Generated %d image(s).", len(images)),
		})
	} else {
		content = append(content, map[string]interface{}{
			"type": "text",
			"text": h.saveBatch(images, req),
		})
	}

	omitted := 0
	for _, img := range images {
		if !withinInlineBudget(img, h.cfg.InlineBudget) {
			omitted++
			continue
		}
		content = append(content, map[string]interface{}{
			"type":     "image",
			"bytes":    base64.StdEncoding.EncodeToString(img.Bytes),
			"mimeType": img.Mime,
		})
	}
	if req.Output == upstream.OutputInline && omitted > 0 {
		note := fmt.Sprintf(" %d image(s) exceeded the inline budget and were not attached; use path output to retrieve them.", omitted)
		content[0]["text"] = content[0]["text"].(string) + note
	}

	return map[string]interface{}{"content": content}
}

// saveBatch persists each image as <outDir>/image-<batch>-<index>.<ext>
// and builds the human-readable summary: a Markdown reference plus a
// plain path per saved file, then per-item error lines. One failed
// write does not abort the rest of the batch.
func (h *Handler) saveBatch(images []upstream.DecodedImage, req upstream.Request) string {
	batch := utils.BatchID()
	var lines, errLines []string
	var firstErr error

	for i, img := range images {
		filename := fmt.Sprintf("image-%s-%d.%s", batch, i+1, utils.ExtensionForMime(img.Mime))
		path := filepath.Join(req.OutDir, filename)
		if err := utils.WriteImageFile(path, img.Bytes); err != nil {
			h.logger.Error("Failed to save image", "path", path, "error", err)
			utils.LogErrorToFile(h.cfg.ErrorLogPath, "save_image", err)
			if firstErr == nil {
				firstErr = err
			}
			errLines = append(errLines, fmt.Sprintf("- image %d: %v", i+1, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("![image %d](%s)", i+1, path), path)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Saved %d of %d image(s) to %s\n", len(lines)/2, len(images), req.OutDir)
	for _, line := range lines {
		sb.WriteString("\n" + line)
	}
	if len(errLines) > 0 {
		sb.WriteString("\n\nErrors:")
		for _, line := range errLines {
			sb.WriteString("\n" + line)
		}
		if hint := hintFor(firstErr); hint != "" {
			sb.WriteString("\n" + hint)
		}
	}
	return sb.String()
}

// withinInlineBudget applies the attachment policy: a budget of zero
// disables inlining entirely, and an image over budget or without
// bytes is never attached regardless of output mode.
func withinInlineBudget(img upstream.DecodedImage, budget int64) bool {
	return budget > 0 && len(img.Bytes) > 0 && int64(len(img.Bytes)) <= budget
}
