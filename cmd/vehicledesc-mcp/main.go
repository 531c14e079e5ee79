package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("VDS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	// Optional: the API is open when it has no keys configured.
	apiKey := os.Getenv("VDS_API_KEY")

	client := newAPIClient(apiURL, apiKey)

	s := server.NewMCPServer(
		"vehicledesc",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	carfaxTool := mcp.NewTool("carfax_report",
		mcp.WithDescription("Look up a vehicle's Carfax history by VIN. Logs into the Carfax portal with a headless browser and reports one-owner, no-accident, service-record and personal-use indicators."),
		mcp.WithString("vin",
			mcp.Required(),
			mcp.Description("Vehicle identification number"),
		),
		mcp.WithString("username",
			mcp.Description("Carfax portal username (defaults to the server's configured account)"),
		),
		mcp.WithString("password",
			mcp.Description("Carfax portal password (defaults to the server's configured account)"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached result up to this many milliseconds old (0 = always fetch)"),
		),
	)
	s.AddTool(carfaxTool, client.handleLookup("/api/carfax"))

	stickerTool := mcp.NewTool("window_sticker",
		mcp.WithDescription("Look up a vehicle's factory window sticker by VIN through the Velocity portal and report year, make and model."),
		mcp.WithString("vin",
			mcp.Required(),
			mcp.Description("Vehicle identification number"),
		),
		mcp.WithString("username",
			mcp.Description("Velocity portal username (defaults to the server's configured account)"),
		),
		mcp.WithString("password",
			mcp.Description("Velocity portal password (defaults to the server's configured account)"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached result up to this many milliseconds old (0 = always fetch)"),
		),
	)
	s.AddTool(stickerTool, client.handleLookup("/api/windowsticker"))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
