package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// searchPreviewRunes truncates chunk text in search tool output.
const searchPreviewRunes = 500

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string   `json:"question" jsonschema:"the question to answer from the ingested papers"`
	SessionID string   `json:"session_id,omitempty" jsonschema:"chat session to continue; a new one is created when empty"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity between 0 and 1 (default 0.78)"`
	Count     *int     `json:"count,omitempty" jsonschema:"maximum number of evidence chunks between 1 and 50 (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	SessionID string           `json:"session_id"`
	Answer    string           `json:"answer"`
	Found     bool             `json:"found"`
	Evidence  []EvidenceOutput `json:"evidence"`
}

// EvidenceOutput is one chunk an answer was grounded on.
type EvidenceOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Position   int     `json:"position"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"the text to find similar passages for"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity between 0 and 1"`
	Count     *int     `json:"count,omitempty" jsonschema:"maximum number of results between 1 and 50"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []EvidenceOutput `json:"results"`
	Count   int              `json:"count"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using passages retrieved from the ingested PDF papers",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find passages in the ingested PDF papers similar to a query",
	}, s.handleSearch)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the ingested PDF papers with their chunk counts",
		}, s.handleListDocuments)
	}
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, clientError("listing documents", err)
	}

	out := ListDocumentsOutput{Documents: documentInfos(docs), Count: len(docs)}

	var b strings.Builder
	if len(docs) == 0 {
		b.WriteString("No documents have been ingested.")
	}
	for i, d := range out.Documents {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s, %d chunks)", d.Title, d.ID, d.ChunkCount)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, out, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Question, domain.AskOptions{
		SessionID: input.SessionID,
		Threshold: input.Threshold,
		Count:     input.Count,
	})
	if err != nil {
		return nil, AskOutput{}, clientError("ask", err)
	}

	out := AskOutput{
		SessionID: answer.SessionID,
		Answer:    answer.Text,
		Found:     answer.Found,
		Evidence:  make([]EvidenceOutput, len(answer.Evidence)),
	}
	for i, e := range answer.Evidence {
		out.Evidence[i] = EvidenceOutput{
			DocumentID: e.DocumentID,
			Title:      e.Title,
			Position:   e.Position,
			Similarity: e.Similarity,
			Content:    e.Content,
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatAnswer(out)}},
	}, out, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.Search.Defaults()
	if input.Threshold != nil {
		opts.Threshold = *input.Threshold
	}
	if input.Count != nil {
		opts.Count = *input.Count
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, clientError("search", err)
	}

	out := SearchOutput{
		Results: make([]EvidenceOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		out.Results[i] = EvidenceOutput{
			DocumentID: results[i].Chunk.DocumentID,
			Title:      results[i].DocumentTitle,
			Position:   results[i].Chunk.Position,
			Similarity: results[i].Similarity,
			Content:    domain.Preview(results[i].Chunk.Content, searchPreviewRunes),
		}
	}

	return nil, out, nil
}

// formatAnswer renders the answer with numbered sources for clients that
// only display text content.
func formatAnswer(out AskOutput) string {
	var b strings.Builder
	b.WriteString(out.Answer)
	if len(out.Evidence) > 0 {
		b.WriteString("\n\nSources:")
		for i, e := range out.Evidence {
			fmt.Fprintf(&b, "\n[%d] %s (chunk %d, similarity %.2f)", i+1, e.Title, e.Position, e.Similarity)
		}
	}
	return b.String()
}
