package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

type documentView struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Source     string                  `json:"source"`
	Metadata   domain.DocumentMetadata `json:"metadata"`
	ChunkCount int                     `json:"chunk_count"`
	CreatedAt  time.Time               `json:"created_at"`
}

func newDocumentView(d *domain.Document) documentView {
	return documentView{
		ID:         d.ID,
		Title:      d.Title,
		Source:     d.Source,
		Metadata:   d.Metadata,
		ChunkCount: d.Metadata.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.ports.Document.List(c.Request.Context())
	if err != nil {
		fail(c, "list documents", err)
		return
	}

	views := make([]documentView, len(docs))
	for i := range docs {
		views[i] = newDocumentView(&docs[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": views,
		"count":     len(views),
	})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.ports.Document.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": newDocumentView(doc),
	})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.ports.Document.Delete(c.Request.Context(), id); err != nil {
		fail(c, "delete document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"document_id": id,
		"message":     "Document deleted successfully",
	})
}
