package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// searchPreviewRunes truncates result content on GET /api/search.
const searchPreviewRunes = 500

// ==================== Upload ====================

type documentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type uploadResponse struct {
	Success    bool            `json:"success"`
	DocumentID string          `json:"document_id"`
	ChunkCount int             `json:"chunk_count"`
	Message    string          `json:"message"`
	Document   documentSummary `json:"document"`
}

func (s *Server) handleUpload(c *gin.Context) {
	// Multipart framing needs a little room beyond the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, "upload", domain.ErrUploadTooLarge)
			return
		}
		badRequest(c, "No file provided")
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		fail(c, "upload", fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrUploadTooLarge, header.Filename, header.Size, s.cfg.MaxUploadBytes))
		return
	}

	f, err := header.Open()
	if err != nil {
		fail(c, "open upload", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		fail(c, "read upload", err)
		return
	}

	result, err := s.ports.Ingest.Ingest(c.Request.Context(), &domain.RawDocument{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Content:  content,
		Source:   domain.SourceUpload,
	})
	if err != nil {
		fail(c, "ingest", err)
		return
	}

	doc := result.Document
	c.JSON(http.StatusOK, uploadResponse{
		Success:    true,
		DocumentID: doc.ID,
		ChunkCount: result.ChunkCount,
		Message:    "Successfully processed document: " + doc.Title,
		Document: documentSummary{
			ID:        doc.ID,
			Title:     doc.Title,
			Source:    doc.Source,
			CreatedAt: doc.CreatedAt,
		},
	})
}

// ==================== Answer ====================

type answerRequest struct {
	Type           string   `json:"type,omitempty"`
	Question       string   `json:"question"`
	SessionID      string   `json:"sessionId"`
	MatchThreshold *float64 `json:"matchThreshold"`
	MatchCount     *int     `json:"matchCount"`
}

type answerResponse struct {
	Type      string                `json:"type,omitempty"`
	Success   bool                  `json:"success"`
	SessionID string                `json:"sessionId"`
	Answer    string                `json:"answer"`
	Evidence  []domain.EvidenceItem `json:"evidence"`
	Message   string                `json:"message"`
}

func newAnswerResponse(a *domain.Answer) answerResponse {
	msg := "Answer generated successfully"
	if !a.Found {
		msg = "No relevant content found"
	}
	evidence := a.Evidence
	if evidence == nil {
		evidence = []domain.EvidenceItem{}
	}
	return answerResponse{
		Success:   true,
		SessionID: a.SessionID,
		Answer:    a.Text,
		Evidence:  evidence,
		Message:   msg,
	}
}

func (s *Server) handleAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	answer, err := s.ports.Answer.Ask(c.Request.Context(), req.Question, domain.AskOptions{
		SessionID: req.SessionID,
		Threshold: req.MatchThreshold,
		Count:     req.MatchCount,
	})
	if err != nil {
		fail(c, "answer", err)
		return
	}

	c.JSON(http.StatusOK, newAnswerResponse(answer))
}

// ==================== Search ====================

type searchRequest struct {
	Query          string   `json:"query"`
	MatchThreshold *float64 `json:"matchThreshold"`
	MatchCount     *int     `json:"matchCount"`
}

type searchResult struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Position   int     `json:"position"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
	Count   int            `json:"count"`
	Message string         `json:"message,omitempty"`
}

func (s *Server) handleSearchPost(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	resp, ok := s.search(c, req.Query, s.searchOptions(req.MatchThreshold, req.MatchCount), 0)
	if !ok {
		return
	}
	resp.Message = fmt.Sprintf("Found %d relevant documents", resp.Count)
	c.JSON(http.StatusOK, resp)
}

// handleSearchGet mirrors the POST form with query parameters. Unparseable
// or zero parameters fall back to the defaults.
func (s *Server) handleSearchGet(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		badRequest(c, `Query parameter "q" is required`)
		return
	}

	var (
		threshold *float64
		count     *int
	)
	if v, err := strconv.ParseFloat(c.Query("threshold"), 64); err == nil && v != 0 {
		threshold = &v
	}
	if v, err := strconv.Atoi(c.Query("count")); err == nil && v != 0 {
		count = &v
	}

	resp, ok := s.search(c, query, s.searchOptions(threshold, count), searchPreviewRunes)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) search(c *gin.Context, query string, opts domain.SearchOptions, preview int) (searchResponse, bool) {
	results, err := s.ports.Search.Search(c.Request.Context(), query, opts)
	if err != nil {
		fail(c, "search", err)
		return searchResponse{}, false
	}

	out := make([]searchResult, len(results))
	for i, r := range results {
		content := r.Chunk.Content
		if preview > 0 {
			content = domain.Preview(content, preview)
		}
		out[i] = searchResult{
			ID:         r.Chunk.ID,
			DocumentID: r.Chunk.DocumentID,
			Title:      r.DocumentTitle,
			Position:   r.Chunk.Position,
			Content:    content,
			Similarity: r.Similarity,
		}
	}

	return searchResponse{
		Success: true,
		Query:   query,
		Results: out,
		Count:   len(out),
	}, true
}
