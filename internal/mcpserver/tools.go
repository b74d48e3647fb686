package mcpserver

import (
	"context"
	"errors"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/couette/internal/output"
	"github.com/panbanda/couette/internal/service/analysis"
	outputSvc "github.com/panbanda/couette/internal/service/output"
)

// SummaryInput is the input of coverage_summary.
type SummaryInput struct {
	Current        string `json:"current" jsonschema:"Path to the coverage-summary.json of the current build."`
	RepositoryRoot string `json:"repository_root,omitempty" jsonschema:"Prefix stripped from file paths. Defaults to the git worktree root."`
	Format         string `json:"format,omitempty" jsonschema:"Output format: markdown (default), json, or toon."`
}

// CompareInput is the input of coverage_compare.
type CompareInput struct {
	SummaryInput
	Baseline string `json:"baseline" jsonschema:"Path to the coverage-summary.json of the base branch."`
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "toon":
		return output.FormatTOON
	default:
		return output.FormatMarkdown
	}
}

func toolResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) runReport(ctx context.Context, req analysis.Request, format string) (*mcp.CallToolResult, any, error) {
	if req.Current == "" {
		return toolError("current is required")
	}

	svc := analysis.New(analysis.WithConfig(s.config))
	res, err := svc.Report(ctx, req)
	if errors.Is(err, os.ErrNotExist) {
		return toolError("coverage summary not found: " + req.Current)
	}
	if err != nil {
		return toolError(err.Error())
	}

	text, err := outputSvc.FormatReport(res.Report, getFormat(format), svc.Config().Report.Marker)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(text)
}

// Tool handlers

func (s *Server) handleCoverageSummary(ctx context.Context, req *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, any, error) {
	return s.runReport(ctx, analysis.Request{
		Current:        input.Current,
		RepositoryRoot: input.RepositoryRoot,
		SkipBaseline:   true,
	}, input.Format)
}

func (s *Server) handleCoverageCompare(ctx context.Context, req *mcp.CallToolRequest, input CompareInput) (*mcp.CallToolResult, any, error) {
	if input.Baseline == "" {
		return toolError("baseline is required")
	}
	return s.runReport(ctx, analysis.Request{
		Current:        input.Current,
		Baseline:       input.Baseline,
		RepositoryRoot: input.RepositoryRoot,
	}, input.Format)
}

