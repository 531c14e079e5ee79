package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/vehicledesc/models"
)

// apiClient calls the vehicledesc HTTP API.
type apiClient struct {
	http *resty.Client
}

// newAPIClient creates a client for the API at baseURL. Lookups drive a
// real browser through two page loads and a login, hence the long timeout.
// apiKey may be empty.
func newAPIClient(baseURL, apiKey string) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(150*time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return &apiClient{http: c}
}

// lookup posts req to path and returns the raw success body.
func (a *apiClient) lookup(ctx context.Context, path string, req models.LookupRequest) ([]byte, error) {
	var apiErr models.ErrorResult
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(req).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error == "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
		}
		if apiErr.Code != "" {
			return nil, fmt.Errorf("[%s] %s", apiErr.Code, apiErr.Error)
		}
		return nil, fmt.Errorf("%s", apiErr.Error)
	}
	return resp.Body(), nil
}

// handleLookup returns the tool handler for one lookup endpoint. The record
// is returned as indented JSON.
func (a *apiClient) handleLookup(path string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vin, err := request.RequireString("vin")
		if err != nil || vin == "" {
			return mcp.NewToolResultError("vin is required"), nil
		}

		body, err := a.lookup(ctx, path, models.LookupRequest{
			VIN:      vin,
			Username: request.GetString("username", ""),
			Password: request.GetString("password", ""),
			MaxAge:   request.GetInt("max_age", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		var out bytes.Buffer
		if err := json.Indent(&out, body, "", "  "); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		return mcp.NewToolResultText(out.String()), nil
	}
}
