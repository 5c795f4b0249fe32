package tools

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imagegen-mcp-server/internal/mcp"
	"imagegen-mcp-server/internal/upstream"
	"imagegen-mcp-server/internal/utils"
)

// resourceScheme prefixes the URIs under which previously generated
// images are exposed: imagegen://generated/<filename>.
const resourceScheme = "imagegen://generated"

func (h *Handler) handleListResourceTemplates(request mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	templates := []map[string]interface{}{
		{
			"uriTemplate": resourceScheme + "/{filename}",
			"name":        "Generated image",
			"description": "An image file previously generated into the configured output directory.",
		},
	}
	return mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result:  map[string]interface{}{"resourceTemplates": templates},
	}
}

// handleListResources lists the image files in the output directory as
// resources, newest names last, paginated by an opaque cursor. A
// missing directory is an empty listing, not an error; nothing has
// been generated yet.
func (h *Handler) handleListResources(request mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	offset, err := utils.ParseCursor(request.Params.Cursor)
	if err != nil {
		return mcp.NewErrorResponse(request.ID, -32602, "Invalid params: "+err.Error(), nil)
	}

	names, err := h.listImageFiles()
	if err != nil {
		h.logger.Error("Failed to list output directory", "dir", h.cfg.OutputDir, "error", err)
		rpcErr := upstream.MapErrorToJSONRPC(err)
		return mcp.NewErrorResponse(request.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}

	if offset > len(names) {
		offset = len(names)
	}
	end := offset + utils.DefaultPageSize
	if end > len(names) {
		end = len(names)
	}

	resources := make([]map[string]interface{}, 0, end-offset)
	for _, name := range names[offset:end] {
		resources = append(resources, map[string]interface{}{
			"uri":      resourceScheme + "/" + name,
			"name":     name,
			"mimeType": utils.MimeForExtension(filepath.Ext(name)),
		})
	}

	result := map[string]interface{}{"resources": resources}
	if next := utils.NextCursor(offset, utils.DefaultPageSize, len(names)); next != "" {
		result["nextCursor"] = next
	}
	return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: request.ID, Result: result}
}

// handleReadResource returns one generated image as a base64 blob.
func (h *Handler) handleReadResource(request mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	uri := request.Params.URI
	if uri == "" {
		return mcp.NewErrorResponse(request.ID, -32602, "Missing required parameter: uri", nil)
	}

	filename, ok := strings.CutPrefix(uri, resourceScheme+"/")
	if !ok || filename == "" || !safeFilename(filename) {
		return mcp.NewErrorResponse(request.ID, -32602, "Invalid params: unsupported resource URI: "+uri, nil)
	}

	path := filepath.Join(h.cfg.OutputDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mcp.NewErrorResponse(request.ID, -32002, "Resource not found: "+uri, nil)
		}
		h.logger.Error("Failed to read resource", "path", path, "error", err)
		utils.LogErrorToFile(h.cfg.ErrorLogPath, "resources/read", err)
		rpcErr := upstream.MapErrorToJSONRPC(err)
		return mcp.NewErrorResponse(request.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}

	contents := []map[string]interface{}{
		{
			"uri":      uri,
			"mimeType": utils.MimeForExtension(filepath.Ext(filename)),
			"blob":     base64.StdEncoding.EncodeToString(data),
		},
	}
	return mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result:  map[string]interface{}{"contents": contents},
	}
}

// listImageFiles returns the image filenames in the output directory
// in sorted order, which is chronological thanks to the timestamped
// batch identifiers.
func (h *Handler) listImageFiles() ([]string, error) {
	entries, err := os.ReadDir(h.cfg.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if utils.MimeForExtension(filepath.Ext(entry.Name())) == "application/octet-stream" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// safeFilename rejects names that could escape the output directory.
func safeFilename(name string) bool {
	return !strings.Contains(name, "/") &&
		!strings.Contains(name, "\\") &&
		!strings.Contains(name, "..") &&
		name != "."
}
