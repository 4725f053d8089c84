// Package mcp exposes rule lookup and validation as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/validate"
)

// ConfigURI is the resource holding the effective root configuration.
const ConfigURI = "reclint://config"

// ReclintServer serves one project over MCP.
type ReclintServer struct {
	Engine  *validate.Engine
	Version string
	log     *zap.SugaredLogger
}

// NewServer registers the tools and resources of engine's project.
func NewServer(engine *validate.Engine, version string, log *zap.SugaredLogger) *mcp.Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	rs := &ReclintServer{Engine: engine, Version: version, log: log}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "rec_lint",
		Version: version,
	}, &mcp.ServerOptions{})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "show_rules",
		Description: "List the rules and guidelines that apply to a directory or file",
	}, rs.showRules)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "show_guidelines",
		Description: "List the review guidelines that apply to a directory or file",
	}, rs.showGuidelines)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "validate",
		Description: "Validate files or directories against their rules",
	}, rs.validate)

	s.AddResource(&mcp.Resource{
		Name:     "config",
		URI:      ConfigURI,
		MIMEType: "application/yaml",
	}, rs.handleConfig)

	return s
}

// Tool Inputs

// PathInput selects a directory or file, relative to the project root.
type PathInput struct {
	Path string `json:"path,omitempty" jsonschema:"directory or file relative to the project root, default the root"`
}

// ValidateInput selects what to validate and how to order the report.
type ValidateInput struct {
	Paths []string `json:"paths,omitempty" jsonschema:"files or directories relative to the project root, default the root"`
	Sort  string   `json:"sort,omitempty" jsonschema:"rule or file"`
}

// ValidateOutput is the structured result of the validate tool.
type ValidateOutput struct {
	Files      int                  `json:"files"`
	Violations []validate.Violation `json:"violations"`
	Errors     []string             `json:"errors,omitempty"`
}

func (rs *ReclintServer) abs(p string) string {
	root := rs.Engine.Config().Root
	if p == "" {
		return root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

func text(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: s}}}
}

func failure(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}
}

// Tool Handlers

func (rs *ReclintServer) showRules(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, any, error) {
	set, err := rs.Engine.Rules(rs.abs(input.Path))
	if err != nil {
		return failure(err), nil, nil
	}
	var lines []string
	for _, r := range set.Rules {
		lines = append(lines, validate.FormatRule(r))
	}
	for _, g := range set.Guidelines {
		lines = append(lines, validate.FormatGuideline(g))
	}
	if len(lines) == 0 {
		return text("no rules apply"), nil, nil
	}
	return text(strings.Join(lines, "\n")), nil, nil
}

func (rs *ReclintServer) showGuidelines(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, any, error) {
	set, err := rs.Engine.Rules(rs.abs(input.Path))
	if err != nil {
		return failure(err), nil, nil
	}
	var lines []string
	for _, g := range set.Guidelines {
		lines = append(lines, validate.FormatGuidelineOnly(g))
	}
	if len(lines) == 0 {
		return text("no guidelines apply"), nil, nil
	}
	return text(strings.Join(lines, "\n")), nil, nil
}

func (rs *ReclintServer) validate(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, ValidateOutput, error) {
	out := ValidateOutput{Violations: []validate.Violation{}}
	order, err := validate.ParseSortOrder(input.Sort)
	if err != nil {
		return failure(err), out, nil
	}
	targets := []string{rs.abs("")}
	if len(input.Paths) > 0 {
		targets = targets[:0]
		for _, p := range input.Paths {
			targets = append(targets, rs.abs(p))
		}
	}

	// Rule files may have changed since the last call.
	rs.Engine.Reset()
	res, err := rs.Engine.Validate(ctx, targets...)
	if err != nil {
		return failure(err), out, nil
	}
	rs.log.Debugw("validate tool finished", "files", res.Files, "violations", len(res.Violations))

	var sb strings.Builder
	if err := validate.Write(&sb, res, order); err != nil {
		return nil, out, err
	}
	out.Files = res.Files
	out.Violations = append(out.Violations, res.Violations...)
	for _, fe := range res.Errors {
		out.Errors = append(out.Errors, fe.Error())
		fmt.Fprintf(&sb, "error: %s\n", fe.Error())
	}
	if len(res.Violations) == 0 && len(res.Errors) == 0 {
		sb.WriteString("no violations\n")
	}
	return text(strings.TrimSuffix(sb.String(), "\n")), out, nil
}

// Resource Handlers

// configView is the root configuration as written in the marker file, with the
// timeout in duration notation.
type configView struct {
	IncludeExtensions []string `yaml:"include_extensions"`
	ExcludeDirs       []string `yaml:"exclude_dirs"`
	ScriptDir         string   `yaml:"script_dir"`
	CommandTimeout    string   `yaml:"command_timeout"`
	Jobs              int      `yaml:"jobs"`
	CommandJobs       int      `yaml:"command_jobs"`
	PersistenceDir    string   `yaml:"persistence_dir"`
	CacheSize         int      `yaml:"cache_size"`
}

func newConfigView(cfg *config.Config) configView {
	return configView{
		IncludeExtensions: cfg.IncludeExtensions,
		ExcludeDirs:       cfg.ExcludeDirs,
		ScriptDir:         cfg.ScriptDir,
		CommandTimeout:    cfg.CommandTimeout.String(),
		Jobs:              cfg.Jobs,
		CommandJobs:       cfg.CommandJobs,
		PersistenceDir:    cfg.PersistenceDir,
		CacheSize:         cfg.CacheSize,
	}
}

func (rs *ReclintServer) handleConfig(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	b, err := yaml.Marshal(newConfigView(rs.Engine.Config()))
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/yaml", Text: string(b)},
		},
	}, nil
}
