// Package dataset resolves named Hugging Face datasets to local
// line-oriented text corpora via the datasets-server REST API. Each dataset
// lands in one .txt file with one row text per line, ready to stream as a
// training corpus.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/samcharles93/tokenthing/internal/logger"
)

const (
	// DefaultBaseURL is the public datasets-server endpoint.
	DefaultBaseURL = "https://datasets-server.huggingface.co"

	// pageSize is the row count requested per page, the server's maximum.
	pageSize = 100
)

var (
	ErrNoDatasets = errors.New("no datasets requested")
	ErrNoSplits   = errors.New("dataset has no splits")
)

// retryBaseDelay is the first backoff step; doubled per attempt.
var retryBaseDelay = time.Second

// Client fetches datasets. The zero value works; NewClient fills in the
// defaults explicitly.
type Client struct {
	// BaseURL overrides the datasets-server endpoint.
	BaseURL string
	// HTTP is the underlying client.
	HTTP *http.Client
	// Limiter paces requests client-side. Nil disables pacing.
	Limiter *rate.Limiter
	// MaxRows caps the rows fetched per dataset. Zero fetches everything.
	MaxRows int
	// Concurrency bounds parallel dataset downloads in FetchAll.
	Concurrency int
	// Attempts is the request budget including retries on 429 and 5xx.
	Attempts int
}

// NewClient returns a Client with polite defaults for the public endpoint.
func NewClient() *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
		Limiter:     rate.NewLimiter(rate.Limit(4), 8),
		Concurrency: 2,
		Attempts:    4,
	}
}

// SafeName returns the local file name for a dataset: path separators
// flattened, .txt appended.
func SafeName(name string) string {
	return strings.ReplaceAll(name, "/", "_") + ".txt"
}

// FetchAll downloads every named dataset into destDir and returns the local
// paths in input order. Downloads run concurrently up to Concurrency; the
// first failure cancels the rest.
func (c *Client) FetchAll(ctx context.Context, names []string, destDir string) ([]string, error) {
	if len(names) == 0 {
		return nil, ErrNoDatasets
	}
	workers := c.Concurrency
	if workers <= 0 {
		workers = 2
	}
	sem := semaphore.NewWeighted(int64(workers))
	g, ctx := errgroup.WithContext(ctx)
	paths := make([]string, len(names))
	for i, name := range names {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			path, err := c.Fetch(ctx, name, destDir)
			if err != nil {
				return fmt.Errorf("dataset %s: %w", name, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Fetch downloads one dataset into destDir and returns the local path. The
// train split is preferred; otherwise the first advertised split is used.
// Row text comes from the "text" column, then "content", then the first
// string column; rows with no string column are skipped.
func (c *Client) Fetch(ctx context.Context, name, destDir string) (string, error) {
	log := logger.FromContext(ctx)

	cfg, split, err := c.resolveSplit(ctx, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", destDir, err)
	}
	path := filepath.Join(destDir, SafeName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	w := bufio.NewWriter(f)

	written, fetched := 0, 0
	offset := 0
	for {
		length := pageSize
		if c.MaxRows > 0 && c.MaxRows-fetched < length {
			length = c.MaxRows - fetched
		}
		if length <= 0 {
			break
		}

		var page rowsResponse
		q := url.Values{}
		q.Set("dataset", name)
		q.Set("config", cfg)
		q.Set("split", split)
		q.Set("offset", strconv.Itoa(offset))
		q.Set("length", strconv.Itoa(length))
		if err := c.get(ctx, "/rows?"+q.Encode(), &page); err != nil {
			return "", err
		}
		if len(page.Rows) == 0 {
			break
		}
		for _, row := range page.Rows {
			text, ok := extractText(row.Row)
			if !ok {
				continue
			}
			if _, err := w.WriteString(text); err != nil {
				return "", fmt.Errorf("write %s: %w", path, err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return "", fmt.Errorf("write %s: %w", path, err)
			}
			written++
		}
		fetched += len(page.Rows)
		offset += len(page.Rows)
		if len(page.Rows) < length {
			break
		}
		if page.NumRowsTotal > 0 && offset >= page.NumRowsTotal {
			break
		}
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	log.Info("dataset fetched", "dataset", name, "config", cfg, "split", split, "rows", written, "path", path)
	return path, nil
}

func (c *Client) resolveSplit(ctx context.Context, name string) (config, split string, err error) {
	var resp splitsResponse
	q := url.Values{}
	q.Set("dataset", name)
	if err := c.get(ctx, "/splits?"+q.Encode(), &resp); err != nil {
		return "", "", err
	}
	if len(resp.Splits) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrNoSplits, name)
	}
	for _, s := range resp.Splits {
		if s.Split == "train" {
			return s.Config, s.Split, nil
		}
	}
	return resp.Splits[0].Config, resp.Splits[0].Split, nil
}

// get performs one GET with pacing and bounded retries on 429 and 5xx.
func (c *Client) get(ctx context.Context, path string, out any) error {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 4
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	u := base + path

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, retryBaseDelay<<uint(attempt-1)); err != nil {
				return err
			}
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			_ = resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", u, err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%s: %s", u, resp.Status)
		default:
			_ = resp.Body.Close()
			return fmt.Errorf("%s: %s", u, resp.Status)
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type splitsResponse struct {
	Splits []struct {
		Dataset string `json:"dataset"`
		Config  string `json:"config"`
		Split   string `json:"split"`
	} `json:"splits"`
}

type rowsResponse struct {
	Rows []struct {
		RowIdx int             `json:"row_idx"`
		Row    json.RawMessage `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// extractText pulls the training text out of one row: the "text" column,
// then "content", then the first string-valued column in document order.
func extractText(raw json.RawMessage) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", false
	}
	for _, key := range []string{"text", "content"} {
		if rv, ok := fields[key]; ok {
			var s string
			if err := json.Unmarshal(rv, &s); err == nil {
				return s, true
			}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", false
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return "", false
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return "", false
		}
		if s, ok := val.(string); ok {
			return s, true
		}
	}
	return "", false
}
