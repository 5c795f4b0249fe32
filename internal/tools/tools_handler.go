package tools

import (
	"context"

	"imagegen-mcp-server/internal/mcp"
	"imagegen-mcp-server/internal/utils"
)

// toolsDefinitionMap declares the exposed tools with their full input
// schemas. tools/list converts it into the slice form the protocol
// wants.
var toolsDefinitionMap = map[string]interface{}{
	"generate_image": map[string]interface{}{
		"description": "Generates one or more images from a text prompt using the configured OpenAI-compatible image endpoint. Images are saved to the output directory unless inline output is requested.",
		"inputSchema": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "Text prompt describing the desired image. An array of strings is also accepted and joined.",
				},
				"size": map[string]interface{}{
					"type":        "string",
					"description": "Optional: image size as WIDTHxHEIGHT, default 1024x1024. A bare number N is treated as NxN.",
				},
				"n": map[string]interface{}{
					"type":        "integer",
					"description": "Optional: number of images to generate, 1 to 4. Defaults to 1.",
				},
				"output": map[string]interface{}{
					"type":        "string",
					"description": "Optional: 'path' (default) saves files and returns their locations; 'image', 'base64', 'b64', 'data' or 'inline' returns base64 payloads instead.",
				},
				"output_dir": map[string]interface{}{
					"type":        "string",
					"description": "Optional: directory for saved images. Accepts ~ and project-relative paths. Also read from outputDir, out_dir and outDir.",
				},
			},
			"required": []string{"prompt"},
		},
	},
}

func (h *Handler) handleListTools(request mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	toolsSlice := make([]map[string]interface{}, 0, len(toolsDefinitionMap))
	for name, definition := range toolsDefinitionMap {
		// Requests run concurrently, so the name goes into a per-call
		// copy and the shared definition stays read-only.
		def := definition.(map[string]interface{})
		toolDef := make(map[string]interface{}, len(def)+1)
		for key, value := range def {
			toolDef[key] = value
		}
		toolDef["name"] = name
		toolsSlice = append(toolsSlice, toolDef)
	}
	return mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result:  map[string]interface{}{"tools": toolsSlice},
	}
}

func (h *Handler) handleCallTool(request mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	h.logger.Info("Handling tools/call request", "tool_name", request.Params.Name, "id", request.ID)

	if h.generator == nil {
		return mcp.NewErrorResponse(request.ID, -32001, "Upstream client not initialized", nil)
	}

	var toolResult interface{}
	var toolError *mcp.RPCError
	switch request.Params.Name {
	case "generate_image":
		toolResult, toolError = h.callGenerateImage(request.Params.Arguments)
	default:
		toolError = &mcp.RPCError{Code: -32601, Message: "Tool not found: " + request.Params.Name}
	}

	return mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result:  toolResult,
		Error:   toolError,
	}
}

// callGenerateImage runs the full pipeline: normalize the loose
// arguments, call the upstream, materialize the outcome. Failures at
// any stage come back as an error-flagged tool result rather than a
// protocol error, so the calling model sees a message it can act on.
func (h *Handler) callGenerateImage(args map[string]interface{}) (interface{}, *mcp.RPCError) {
	req, err := normalizeRequest(args, h.cfg)
	if err != nil {
		h.logger.Warn("Rejected tool arguments", "error", err)
		return errorResult("Invalid arguments", err), nil
	}

	h.logger.Info("Generating images",
		"model", req.Model, "size", req.Size, "count", req.Count, "output", req.Output.String())
	images, err := h.generator.Generate(context.Background(), req)
	if err != nil {
		h.logger.Error("Image generation failed", "error", err)
		utils.LogErrorToFile(h.cfg.ErrorLogPath, "generate_image", err)
		return errorResult("Image generation failed", err), nil
	}

	h.logger.Info("Generation succeeded", "images", len(images))
	return h.materializeResult(images, req), nil
}
