package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wolfattack1993/polytrack-race/game/world"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Polytrack Race Sync Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Polytrack Race Sync Server - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The server relays realtime player state for a multiplayer arena. These
tools observe the live player set and let an operator send a global
announcement.

AVAILABLE TOOLS:
- server_status: Get version, uptime, and player count
- list_players: List all connected players with their positions
- get_player: Get one player by session id
- broadcast_message: Send a global announcement (requires the admin code)`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_status",
		Description: "Get server version, uptime, and connected player count",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_players",
		Description: "List all connected players with username, position, and rotation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPlayers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_player",
		Description: "Get one connected player by session id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID of the player",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetPlayer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "broadcast_message",
		Description: "Send a global announcement to every connected player. Requires the admin code.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Admin code; checked server-side against the configured secret",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Announcement text",
				},
			},
			Required: []string{"code", "message"},
		},
	}, c.handleBroadcast)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs one REST request against the API server
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleServerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status struct {
		Version       string `json:"version"`
		UptimeSeconds int64  `json:"uptime_seconds"`
		Players       int    `json:"players"`
	}

	if err := c.apiCall("GET", "/api/status", nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Server v%s\nUptime: %ds\nConnected players: %d\n",
		status.Version, status.UptimeSeconds, status.Players)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                `json:"count"`
		Players []world.PlayerView `json:"players"`
	}

	if err := c.apiCall("GET", "/api/players", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connected Players (%d):\n\n", response.Count)
	for _, p := range response.Players {
		fmt.Fprintf(&b, "- %s (%s) at (%.2f, %.2f, %.2f)\n",
			p.Username, p.ID, p.Position.X, p.Position.Y, p.Position.Z)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetPlayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var player world.PlayerView
	if err := c.apiCall("GET", fmt.Sprintf("/api/players/%s", sessionID), nil, &player); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Player %s\nUsername: %s\nPosition: (%.2f, %.2f, %.2f)\nRotation: (%.2f, %.2f, %.2f)\n",
		player.ID, player.Username,
		player.Position.X, player.Position.Y, player.Position.Z,
		player.Rotation.X, player.Rotation.Y, player.Rotation.Z)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleBroadcast(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	code, _ := args["code"].(string)
	message, _ := args["message"].(string)

	body := map[string]string{
		"code":    code,
		"message": message,
	}

	if err := c.apiCall("POST", "/api/broadcast", body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Broadcast sent to all connected players"), nil
}
