// Package mcp exposes the analysis pipeline as a Model Context Protocol
// server, so agent hosts can trigger analyses and read the graph as a
// resource.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arbored/weft"
	"github.com/arbored/weft/internal/presentation/graph"
	"github.com/arbored/weft/pkg/analysis"
	"github.com/arbored/weft/pkg/domain"
	"github.com/arbored/weft/pkg/ports"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AnalysisResult is the structured payload returned by the analyze_stock
// tool.
type AnalysisResult struct {
	RunID  string `json:"run_id" jsonschema_description:"Identifier of the stored run"`
	Symbol string `json:"symbol" jsonschema_description:"The analyzed ticker symbol"`
	Report string `json:"report" jsonschema_description:"The generated investment report (markdown)"`
}

// Runner executes a compiled graph. Satisfied by *weft.Engine.
type Runner interface {
	Run(ctx context.Context, g *domain.Graph, initial map[string]any) (domain.Snapshot, error)
}

// Server wraps the analysis pipeline and exposes it over MCP.
type Server struct {
	runner    Runner
	graph     *domain.Graph
	store     ports.RunStore
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(runner Runner, g *domain.Graph, store ports.RunStore) *Server {
	s := &Server{
		runner:    runner,
		graph:     g,
		store:     store,
		mcpServer: server.NewMCPServer("weft-mcp", strings.TrimSpace(weft.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: analyze_stock
	analyzeTool := mcp.NewTool("analyze_stock",
		mcp.WithDescription("Run the full stock analysis workflow for a ticker symbol and return the investment report. Can take minutes depending on the model."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol, e.g. AAPL")),
		mcp.WithOutputSchema[AnalysisResult](),
	)
	s.mcpServer.AddTool(analyzeTool, mcp.NewStructuredToolHandler(s.handleAnalyzeStock))

	// TOOL: get_run
	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Fetch a stored analysis run by ID, including its final state."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run ID returned by analyze_stock")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		record, err := s.store.Load(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(record)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the IDs of stored analysis runs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleAnalyzeStock(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (AnalysisResult, error) {
	symbol, _ := args["symbol"].(string)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return AnalysisResult{}, fmt.Errorf("symbol must not be empty")
	}

	record := &domain.RunRecord{
		ID:        uuid.NewString(),
		Graph:     s.graph.Name(),
		StartedAt: time.Now().UTC(),
	}

	final, err := s.runner.Run(ctx, s.graph, map[string]any{
		analysis.FieldSymbol: symbol,
	})
	record.Duration = time.Since(record.StartedAt)

	if err != nil {
		record.Error = err.Error()
		if wfErr, ok := err.(*domain.WorkflowError); ok {
			record.FailedNode = wfErr.Node
			record.Final = wfErr.Partial
		}
		if saveErr := s.store.Save(ctx, record); saveErr != nil {
			slog.Error("failed to persist failed run", "run_id", record.ID, "err", saveErr)
		}
		return AnalysisResult{}, fmt.Errorf("analysis failed: %w", err)
	}

	record.Final = final
	if saveErr := s.store.Save(ctx, record); saveErr != nil {
		slog.Error("failed to persist run", "run_id", record.ID, "err", saveErr)
	}

	report, _ := final[analysis.FieldReport].(string)
	return AnalysisResult{
		RunID:  record.ID,
		Symbol: symbol,
		Report: report,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: weft://graph
	s.mcpServer.AddResource(mcp.NewResource("weft://graph", "Workflow Graph Definition",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "weft://graph",
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.graph, nil),
			},
		}, nil
	})
}
