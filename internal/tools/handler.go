package tools

import (
	"log/slog"
	"strings"

	"imagegen-mcp-server/internal/config"
	"imagegen-mcp-server/internal/mcp"
	"imagegen-mcp-server/internal/upstream"
)

// Handler processes MCP requests and dispatches tool and resource
// operations.
type Handler struct {
	generator upstream.Generator
	cfg       *config.Config
	logger    *slog.Logger
}

// NewHandler creates a request handler backed by the given upstream
// generator.
func NewHandler(generator upstream.Generator, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleRequest routes an incoming MCP request to the appropriate
// handler method. A nil return means no response should be sent
// (notifications).
func (h *Handler) HandleRequest(request mcp.JSONRPCRequest) *mcp.JSONRPCResponse {
	if strings.HasPrefix(request.Method, "notifications/") {
		h.logger.Debug("Ignoring notification", "method", request.Method)
		return nil
	}
	h.logger.Debug("Handling request", "method", request.Method, "id", request.ID)

	var response mcp.JSONRPCResponse
	switch request.Method {
	case "initialize":
		response = h.handleInitialize(request)
	case "tools/list":
		response = h.handleListTools(request)
	case "tools/call":
		response = h.handleCallTool(request)
	case "resources/list":
		response = h.handleListResources(request)
	case "resources/templates/list":
		response = h.handleListResourceTemplates(request)
	case "resources/read":
		response = h.handleReadResource(request)
	default:
		response = mcp.NewErrorResponse(request.ID, -32601, "Method not found", request.Method)
	}
	return &response
}

func (h *Handler) handleInitialize(request mcp.JSONRPCRequest) mcp.JSONRPCResponse {
	h.logger.Info("Handling initialize request", "id", request.ID)
	return mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]interface{}{
				"name":    "imagegen-mcp-bridge",
				"version": "0.1.0",
			},
			"capabilities": map[string]interface{}{
				"tools":             map[string]interface{}{},
				"resources":         map[string]interface{}{},
				"resourceTemplates": map[string]interface{}{},
				"experimental":      map[string]interface{}{},
				"prompts":           map[string]interface{}{"listChanged": false},
			},
		},
	}
}
