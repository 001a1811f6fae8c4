// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the failbook pipeline as tools over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/failbook/internal/apperr"
	"github.com/starford/failbook/internal/report"
)

const sectionFormatURI = "failbook://section-format"

// Server wraps the MCP server with failbook tools.
type Server struct {
	mcp *server.MCPServer
	svc *report.Service
}

// New creates a new MCP server with all failbook tools registered.
func New(svc *report.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"failbook",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_run_dirs",
		mcp.WithDescription("List the run batch directories available for processing, most recent first."),
	), s.listRunDirs)

	s.mcp.AddTool(mcp.NewTool("collect_failures",
		mcp.WithDescription("Collect the transcripts of every failed run under a batch directory. "+
			"Returns the cleaned Markdown document (SEARCH/REPLACE blocks rewritten) and writes "+
			"the combined, cleaned and HTML artifacts into the directory. See the "+
			sectionFormatURI+" resource for the document layout."),
		mcp.WithString("dir", mcp.Required(), mcp.Description("Batch directory name relative to the base directory")),
	), s.collectFailures)

	s.mcp.AddTool(mcp.NewTool("failure_stats",
		mcp.WithDescription("Return first-try, second-try and failure percentages for a batch directory as JSON."),
		mcp.WithString("dir", mcp.Required(), mcp.Description("Batch directory name relative to the base directory")),
	), s.failureStats)

	s.mcp.AddResource(
		mcp.NewResource(sectionFormatURI, "Aggregate Document Format",
			mcp.WithResourceDescription("Layout of the aggregate and cleaned documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSectionFormat,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listRunDirs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dirs, err := s.svc.ListCandidates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(dirs) == 0 {
		return mcp.NewToolResultText("no run directories found"), nil
	}
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) process(ctx context.Context, req mcp.CallToolRequest) (*report.Report, *mcp.CallToolResult) {
	dir, err := req.RequireString("dir")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	rep, err := s.svc.Process(ctx, dir)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, mcp.NewToolResultError(fmt.Sprintf("directory not found: %s", dir))
		}
		return nil, mcp.NewToolResultError(err.Error())
	}
	return rep, nil
}

func (s *Server) collectFailures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, errResult := s.process(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	p := rep.Tally.Percentages()
	summary := fmt.Sprintf("%d of %d runs failed (first try: %.2f%%, second try: %.2f%%, failures: %.2f%%)",
		rep.Tally.Failures, rep.Tally.Total, p.FirstTry, p.SecondTry, p.Failures)
	return mcp.NewToolResultText(summary + "\n\n" + string(rep.Markdown)), nil
}

func (s *Server) failureStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, errResult := s.process(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"dir":         rep.Dir,
		"tally":       rep.Tally,
		"percentages": rep.Tally.Percentages(),
		"html":        rep.HTMLPath,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSectionFormat(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sectionFormatURI,
			MIMEType: "text/markdown",
			Text:     SectionFormat,
		},
	}, nil
}
