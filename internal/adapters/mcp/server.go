package mcpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

const (
	toolProcessNewFiles = "process_new_files"
	toolSweepArtifacts  = "sweep_transient_artifacts"
)

// NewServer exposes the manual triggers as MCP tools.
func NewServer(version string, processor ports.RunProcessor, sweeper ports.ArtifactSweeper, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := server.NewMCPServer("sermon-ledger", version, server.WithToolCapabilities(true))
	s.AddTool(processNewFilesTool(), handleProcessNewFiles(processor, logger))
	s.AddTool(sweepArtifactsTool(), handleSweepArtifacts(sweeper, logger))
	return s
}

func processNewFilesTool() mcp.Tool {
	return mcp.NewTool(toolProcessNewFiles,
		mcp.WithDescription("Scan the source folder for new PDFs, OCR them, extract sermon metadata and append ledger rows"),
		mcp.WithString("run_id",
			mcp.Description("Optional run identifier; generated when omitted"),
		),
	)
}

func sweepArtifactsTool() mcp.Tool {
	return mcp.NewTool(toolSweepArtifacts,
		mcp.WithDescription("Trash converted OCR artifacts left behind by interrupted runs"),
	)
}

func handleProcessNewFiles(processor ports.RunProcessor, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID := strings.TrimSpace(request.GetString("run_id", ""))

		report, err := processor.ProcessNewFiles(ctx, runID)
		if err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				return mcp.NewToolResultError("A run is already in progress. Try again once it finishes."), nil
			}
			logger.Error("mcp_run_failed", "run_id", runID, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("Run failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatReport(report)), nil
	}
}

func handleSweepArtifacts(sweeper ports.ArtifactSweeper, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trashed, err := sweeper.SweepTransient(ctx)
		if err != nil {
			logger.Error("mcp_sweep_failed", "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("Sweep failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Trashed %d transient artifact(s).", trashed)), nil
	}
}

func formatReport(report *domain.RunReport) string {
	var sb strings.Builder
	sb.WriteString(report.Summary())
	fmt.Fprintf(&sb, "\n\nRun: %s\nListed: %d, succeeded: %d, skipped: %d\n", report.RunID, report.Listed, report.Succeeded, report.Skipped)

	for _, outcome := range report.Outcomes {
		if !outcome.Status.Attempted() {
			continue
		}
		fmt.Fprintf(&sb, "\n- %s: %s", outcome.Name, outcome.Status)
		if outcome.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", outcome.Reason)
		}
	}
	return sb.String()
}
