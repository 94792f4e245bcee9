package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tokenthing/internal/pretoken"
	"github.com/samcharles93/tokenthing/pkg/tokfile"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	artifact := tokfile.New("run-test", pretoken.Pattern())
	artifact.AddMerge(" ", "b", 5)
	artifact.AddMerge("a", " b", 3)
	artifact.Stats = tokfile.Stats{Passes: 3, TargetSize: 2, TrainMS: 12}

	server, err := NewServer(artifact)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

func TestModelMetadata(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/model", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp ModelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode model response: %v", err)
	}
	if resp.Format != tokfile.FormatName {
		t.Fatalf("format mismatch: got %q", resp.Format)
	}
	if resp.RunID != "run-test" {
		t.Fatalf("run id mismatch: got %q", resp.RunID)
	}
	if resp.MergeCount != 2 || resp.VocabSize != 2 {
		t.Fatalf("count mismatch: merges=%d vocab=%d", resp.MergeCount, resp.VocabSize)
	}
	if resp.Stats.Passes != 3 {
		t.Fatalf("stats mismatch: %+v", resp.Stats)
	}
}

func TestTokenizeAppliesMerges(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/tokenize", `{"text":"a b c"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp TokenizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode tokenize response: %v", err)
	}
	want := []string{"a b", " ", "c"}
	if resp.Count != len(want) || len(resp.Symbols) != len(want) {
		t.Fatalf("symbol count mismatch: got %q", resp.Symbols)
	}
	for i := range want {
		if resp.Symbols[i] != want[i] {
			t.Fatalf("symbol %d mismatch: got %q want %q", i, resp.Symbols[i], want[i])
		}
	}
}

func TestTokenizeEmptyText(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/tokenize", `{"text":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"symbols":[]`) {
		t.Fatalf("expected empty symbol array: %s", rec.Body.String())
	}
}

func TestTokenizeRejectsBadJSON(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/tokenize", `{nope`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid_request_error") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestVocabLimit(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/vocab?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp VocabResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode vocab response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total mismatch: got %d want 2", resp.Total)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("entry count mismatch: got %d want 1", len(resp.Entries))
	}
	if resp.Entries[0].Symbol != " b" || resp.Entries[0].Freq != 5 {
		t.Fatalf("top entry mismatch: got %+v", resp.Entries[0])
	}
}

func TestVocabRejectsBadLimit(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	for _, q := range []string{"x", "-1", "1.5"} {
		rec := doJSON(t, e, http.MethodGet, "/v1/vocab?limit="+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("limit %q: got %d want 400", q, rec.Code)
		}
	}
}

func TestIndexServesPreviewPage(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "text/html") {
		t.Fatalf("content type mismatch: %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "/v1/tokenize") {
		t.Fatalf("preview page does not call the tokenize endpoint")
	}
}
