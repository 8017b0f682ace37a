package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"folio/internal/engine"
	"folio/internal/outline"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing library search and outline tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	path, err := dbPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("index not found at %s, run 'folio index' first", path)
	}

	st, _, err := openStore()
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer st.Close()

	s := mcpserver.NewMCPServer("folio", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchLibraryTool(), makeSearchHandler(st))
	s.AddTool(getOutlineTool(), makeOutlineHandler(st))
	s.AddTool(listFoldersTool(), makeSnapshotHandler(st))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchLibraryTool() mcp.Tool {
	return mcp.NewTool("search_library",
		mcp.WithDescription("Search the indexed document library with hybrid lexical + semantic retrieval. Returns ranked file, heading, and author matches."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keyword or natural language query"),
		),
		mcp.WithBoolean("files_only",
			mcp.Description("Match file names only"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of hits to return (default 25)"),
		),
	)
}

func getOutlineTool() mcp.Tool {
	return mcp.NewTool("get_outline",
		mcp.WithDescription("Get a document's reconstructed heading hierarchy and citation blocks by file id."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("file_id",
			mcp.Required(),
			mcp.Description("File id from the index snapshot or a search hit"),
		),
	)
}

func listFoldersTool() mcp.Tool {
	return mcp.NewTool("list_folders",
		mcp.WithDescription("List the indexed folder tree with per-folder file counts."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(eng engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		limit := req.GetInt("limit", 25)
		if limit <= 0 {
			limit = 25
		}
		filesOnly := req.GetBool("files_only", false)

		hits, err := eng.Search(ctx, query, filesOnly, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatHits(query, hits)), nil
	}
}

func makeOutlineHandler(eng engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileID := int64(req.GetInt("file_id", 0))
		if fileID == 0 {
			return mcp.NewToolResultError("file_id is required"), nil
		}

		p, err := eng.FilePreview(ctx, fileID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s (%d headings)\n\n", p.AbsolutePath, len(p.Headings))
		o := outline.Build(p.Headings)
		for _, n := range o.Nodes {
			fmt.Fprintf(&sb, "%s- [H%d] %s\n",
				strings.Repeat("  ", n.Depth), n.Heading.Level, n.Heading.Text)
		}
		if len(p.Citations) > 0 {
			sb.WriteString("\n### Citations\n\n")
			for _, c := range p.Citations {
				fmt.Fprintf(&sb, "- (%s) %s\n", c.StyleLabel, c.Text)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeSnapshotHandler(eng engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := eng.Snapshot(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
		}
		if snap == nil {
			return mcp.NewToolResultText("No index yet. Run 'folio index' first."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s (%d folders, %d files)\n\n", snap.RootPath, len(snap.Folders), len(snap.Files))
		for _, f := range snap.Folders {
			name := f.Name
			if f.Path == "" {
				name = "(root)"
			}
			fmt.Fprintf(&sb, "- **%s** — %d files\n", name, f.FileCount)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatHits(query string, hits []engine.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d hits)\n\n", query, len(hits))
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. **%s** `%s` (file %d, %s, score %.3f)",
			i+1, h.Kind, h.RelativePath, h.FileID, h.Source, h.Score)
		if h.HasHeading {
			fmt.Fprintf(&sb, " — H%d %s", h.HeadingLevel, h.HeadingText)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
