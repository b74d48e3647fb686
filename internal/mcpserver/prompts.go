package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/couette/pkg/config"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptFrontmatter is parsed from YAML frontmatter in prompt files.
type promptFrontmatter struct {
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
}

type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// prompt is a parsed prompt file. Body placeholders like {{current}} are
// filled from the request arguments, else from defaults.
type prompt struct {
	name        string
	description string
	arguments   []promptArgument
	body        string
}

// promptDefaults fills placeholders the client leaves out with the
// configured coverage summary locations.
func promptDefaults(cfg *config.Config) map[string]string {
	baseline := cfg.Inputs.Baseline
	if baseline == "" {
		baseline = "none"
	}
	return map[string]string{
		"current":  cfg.Inputs.Current,
		"baseline": baseline,
	}
}

// registerPrompts registers every embedded coverage review prompt, with its
// summary-path arguments defaulting to the configured inputs.
func (s *Server) registerPrompts() {
	defaults := promptDefaults(s.config)
	for _, p := range loadPrompts() {
		args := make([]*mcp.PromptArgument, len(p.arguments))
		for i, a := range p.arguments {
			args[i] = &mcp.PromptArgument{Name: a.Name, Description: a.Description}
		}
		s.server.AddPrompt(&mcp.Prompt{
			Name:        p.name,
			Description: p.description,
			Arguments:   args,
		}, makePromptHandler(p, defaults))
	}
}

func loadPrompts() []prompt {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil
	}

	var out []prompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			continue
		}
		fm, body := parseFrontmatter(content)
		out = append(out, prompt{
			name:        strings.TrimSuffix(entry.Name(), ".md"),
			description: fm.Description,
			arguments:   fm.Arguments,
			body:        body,
		})
	}
	return out
}

// parseFrontmatter extracts YAML frontmatter and returns it with the body.
func parseFrontmatter(content []byte) (promptFrontmatter, string) {
	var fm promptFrontmatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, string(content)
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return fm, string(content)
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return promptFrontmatter{}, string(content)
	}

	return fm, strings.TrimPrefix(string(rest[end+5:]), "\n")
}

// fill replaces {{name}} placeholders, preferring args over defaults.
func (p prompt) fill(args, defaults map[string]string) string {
	var pairs []string
	for _, a := range p.arguments {
		v := args[a.Name]
		if v == "" {
			v = defaults[a.Name]
		}
		pairs = append(pairs, "{{"+a.Name+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(p.body)
}

func makePromptHandler(p prompt, defaults map[string]string) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		return &mcp.GetPromptResult{
			Description: p.description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: p.fill(args, defaults)},
				},
			},
		}, nil
	}
}
