package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// Server exposes the question answering pipeline and the statute graph as
// MCP tools over stdio, so agent frontends can call them without speaking
// the HTTP API.
type Server struct {
	asker     ports.QuestionService
	enricher  ports.EnrichmentReader
	inspector ports.GraphInspector

	version string
}

func NewServer(asker ports.QuestionService, enricher ports.EnrichmentReader, inspector ports.GraphInspector, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{
		asker:     asker,
		enricher:  enricher,
		inspector: inspector,
		version:   version,
	}
}

func (s *Server) Build() *server.MCPServer {
	srv := server.NewMCPServer(
		"pension-law-assistant",
		s.version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("ask_pension_law",
		mcp.WithDescription("Answer a question about Russian pension law, grounded in indexed statutes. Returns the answer with cited articles as JSON."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question, in Russian."),
		),
		mcp.WithString("category",
			mcp.Description("Optional pension category hint, e.g. old_age_insurance or disability_insurance."),
		),
		mcp.WithString("case_facts",
			mcp.Description("Optional free-text facts of the asker's situation."),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Optional number of sources to keep after reranking."),
		),
	), s.handleAsk)

	srv.AddTool(mcp.NewTool("article_enrichment",
		mcp.WithDescription("Graph context for one statute article: linked pension categories and eligibility conditions."),
		mcp.WithString("article_id",
			mcp.Required(),
			mcp.Description("Canonical article id, e.g. 400-ФЗ_Ст_8."),
		),
	), s.handleEnrichment)

	srv.AddTool(mcp.NewTool("graph_stats",
		mcp.WithDescription("Structural health report of the statute graph: node and edge counts, isolated articles, duplicate categories."),
	), s.handleStats)

	return srv
}

// ServeStdio blocks until the client closes the stream.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.Build())
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.asker.Ask(ctx, domain.AskRequest{
		Question:     question,
		CategoryHint: request.GetString("category", ""),
		CaseFacts:    request.GetString("case_facts", ""),
		TopK:         request.GetInt("top_k", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return jsonToolResult(answer)
}

func (s *Server) handleEnrichment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID, err := request.RequireString("article_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	enrichment, err := s.enricher.Enrichment(ctx, articleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("enrichment failed: %v", err)), nil
	}
	return jsonToolResult(enrichment)
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	health, err := s.inspector.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph validation failed: %v", err)), nil
	}
	return jsonToolResult(health)
}

func jsonToolResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
