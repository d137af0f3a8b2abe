package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

const uriScheme = "paperqa://"

// registerResources exposes the document library.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of all ingested PDF papers",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-text",
		Description: "Extracted text of an ingested paper, chunk by chunk",
		MIMEType:    "text/plain",
	}, s.handleDocumentTextResource)
}

// DocumentInfo describes one ingested paper.
type DocumentInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Source     string `json:"source"`
	ChunkCount int    `json:"chunk_count"`
	URI        string `json:"uri"`
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, clientError("listing documents", err)
	}

	data, err := json.MarshalIndent(documentInfos(docs), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func documentInfos(docs []domain.Document) []DocumentInfo {
	infos := make([]DocumentInfo, len(docs))
	for i := range docs {
		infos[i] = DocumentInfo{
			ID:         docs[i].ID,
			Title:      docs[i].Title,
			Source:     docs[i].Source,
			ChunkCount: docs[i].Metadata.ChunkCount,
			URI:        uriScheme + "documents/" + docs[i].ID,
		}
	}
	return infos
}

// handleDocumentTextResource joins a document's chunks in position order.
// Overlapping chunk boundaries repeat a few words.
func (s *Server) handleDocumentTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunks, err := s.ports.Document.Chunks(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, clientError("reading document chunks", err)
	}

	parts := make([]string, len(chunks))
	for i := range chunks {
		parts[i] = chunks[i].Content
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.Join(parts, "\n\n"),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like paperqa://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
