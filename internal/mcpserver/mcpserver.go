package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/couette/pkg/config"
)

// Server wraps the MCP server and registers the coverage tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration tools and prompts default from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// NewServer creates a new MCP server with all couette tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "couette",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "coverage_summary",
		Description: describeSummary(),
	}, s.handleCoverageSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "coverage_compare",
		Description: describeCompare(),
	}, s.handleCoverageCompare)
}
