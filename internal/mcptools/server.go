package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewTermMCPServer creates an MCP server with the term extraction and
// terminology tools registered.
func NewTermMCPServer(svc *TermService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "termex",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_terms",
		Description: "Extract noun-phrase terms from dependency parses in CoNLL format. Stores terms, their contexts and head/expansion relations, and returns the terms found in each sentence.",
	}, svc.ExtractTerms)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_terms",
		Description: "Search the term base by text substring. Results are ordered by frequency, highest first.",
	}, svc.QueryTerms)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_term",
		Description: "Return one term with its heads, its expansions and every context it occurs in.",
	}, svc.GetTerm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Return the number of terms, contexts and relations in the term base.",
	}, svc.GetStats)

	return server
}

// RunMCPServer serves the term tools over streamable HTTP until ctx is done.
func RunMCPServer(ctx context.Context, svc *TermService, addr string) error {
	server := NewTermMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeStdio runs the term tools on stdio, blocking until stdin is closed or
// ctx is cancelled.
func ServeStdio(ctx context.Context, svc *TermService) error {
	return NewTermMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
