package main

import (
	"fmt"

	"github.com/panbanda/couette/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP server for LLM tool integration",
		Description: `Starts a Model Context Protocol (MCP) server over stdio.

Tools:
  coverage_summary   Coverage of a single snapshot
  coverage_compare   Coverage changes between a snapshot and its baseline

Add to Claude Desktop's config:
  {
    "mcpServers": {
      "couette": {
        "command": "couette",
        "args": ["mcp"]
      }
    }
  }`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest",
				Action: runMCPManifest,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, mcpserver.WithConfig(result.Config)).Run(c.Context)
}

func runMCPManifest(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
