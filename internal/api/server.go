// Package api exposes a trained vocabulary over HTTP: artifact metadata,
// vocabulary listings, and a tokenization preview that applies the learned
// merges to caller text.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tokenthing/internal/bpe"
	"github.com/samcharles93/tokenthing/internal/pretoken"
	"github.com/samcharles93/tokenthing/internal/webui"
	"github.com/samcharles93/tokenthing/pkg/tokfile"
)

// Server serves one loaded vocabulary artifact. The merge list is prepared
// once at construction; requests only read.
type Server struct {
	artifact *tokfile.Artifact
	rules    *bpe.Ruleset
	clock    func() time.Time
}

// NewServer decodes the artifact's merge list into an applicable ruleset.
func NewServer(artifact *tokfile.Artifact) (*Server, error) {
	pairs, err := artifact.MergePairs()
	if err != nil {
		return nil, err
	}
	rules, err := bpe.RulesetFromPairs(pairs)
	if err != nil {
		return nil, err
	}
	return &Server{
		artifact: artifact,
		rules:    rules,
		clock:    time.Now,
	}, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModel)
	e.GET("/v1/vocab", s.handleVocab)
	e.POST("/v1/tokenize", s.handleTokenize)
	e.GET("/", s.handleIndex)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.clock().UTC(),
	})
}

// ModelResponse summarizes the served artifact.
type ModelResponse struct {
	Format       string        `json:"format"`
	Version      int           `json:"version"`
	RunID        string        `json:"run_id"`
	CreatedAt    time.Time     `json:"created_at"`
	Pretokenizer string        `json:"pretokenizer"`
	MergeCount   int           `json:"merge_count"`
	VocabSize    int           `json:"vocab_size"`
	Stats        tokfile.Stats `json:"stats"`
}

func (s *Server) handleModel(c *echo.Context) error {
	return c.JSON(http.StatusOK, ModelResponse{
		Format:       s.artifact.Format,
		Version:      s.artifact.Version,
		RunID:        s.artifact.RunID,
		CreatedAt:    s.artifact.CreatedAt,
		Pretokenizer: s.artifact.Pretokenizer,
		MergeCount:   len(s.artifact.Merges),
		VocabSize:    len(s.artifact.Vocab),
		Stats:        s.artifact.Stats,
	})
}

// VocabResponse lists vocabulary entries by descending frequency.
type VocabResponse struct {
	Entries []tokfile.Entry `json:"entries"`
	Total   int             `json:"total"`
}

func (s *Server) handleVocab(c *echo.Context) error {
	limit := 0
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return writeBadRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}
	entries, err := s.artifact.TopEntries(limit)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	return c.JSON(http.StatusOK, VocabResponse{
		Entries: entries,
		Total:   len(s.artifact.Vocab),
	})
}

// TokenizeRequest carries the text to preview.
type TokenizeRequest struct {
	Text string `json:"text"`
}

// TokenizeResponse is the symbol sequence after all merges are applied.
type TokenizeResponse struct {
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

func (s *Server) handleTokenize(c *echo.Context) error {
	req, err := decodeJSON[TokenizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	symbols := s.rules.Apply(pretoken.Split(req.Text))
	if symbols == nil {
		symbols = []string{}
	}
	return c.JSON(http.StatusOK, TokenizeResponse{
		Symbols: symbols,
		Count:   len(symbols),
	})
}

func (s *Server) handleIndex(c *echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	res.WriteHeader(http.StatusOK)
	_, err := res.Write(webui.Index())
	return err
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
