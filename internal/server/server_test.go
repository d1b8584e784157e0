package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aholston/watchdogai/internal/embed"
	"github.com/aholston/watchdogai/internal/engine/extractor"
	"github.com/aholston/watchdogai/internal/findings"
	"github.com/aholston/watchdogai/internal/hub"
	"github.com/aholston/watchdogai/internal/model"
	"github.com/aholston/watchdogai/internal/normalize"
	"github.com/aholston/watchdogai/internal/pipeline"
	"github.com/aholston/watchdogai/internal/vectorstore"
)

type stubInferrer struct {
	reply string
	err   error
}

func (s *stubInferrer) Infer(context.Context, string) (string, error) {
	return s.reply, s.err
}

func (s *stubInferrer) Model() string { return "stub-model" }

const findingReply = `[{
  "category": "brute_force",
  "severity": "high",
  "confidence": 0.85,
  "issue": "SSH brute force attempt",
  "recommendation": "Block the source address."
}]`

func newTestServer(t *testing.T, inf *stubInferrer) (*Server, *hub.Hub) {
	t.Helper()

	emb, err := embed.New(embed.Config{Provider: "local", Dim: 64})
	if err != nil {
		t.Fatalf("embed.New: %v", err)
	}
	dir := t.TempDir()
	store, err := vectorstore.OpenFile(filepath.Join(dir, "vectors.db"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	log, err := findings.Open(filepath.Join(dir, "findings.db"))
	if err != nil {
		t.Fatalf("findings.Open: %v", err)
	}

	p := pipeline.New(
		normalize.New(normalize.Options{JoinContinuations: true}),
		emb, inf, store, log, extractor.Config{},
		pipeline.Options{LLMProvider: "anthropic", EmbedProvider: "local", StoreKind: "file", RetrievalLimit: 3},
	)

	h := hub.New()
	t.Cleanup(h.Close)
	p.OnFinding(h.Broadcast)
	return New(p, h, ":0"), h
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func uploadLog(t *testing.T, s *Server, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{reply: findingReply})

	w := doJSON(t, s, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestAnalyzeUploadProducesFindings(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{reply: findingReply})

	w := uploadLog(t, s, "auth.log",
		"Jan 15 10:30:01 web-01 sshd[112]: Failed password for root from 10.0.0.9\n")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var res pipeline.IngestResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalLogs != 1 || len(res.Findings) != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Findings[0].Category != model.CategoryBruteForce {
		t.Errorf("category = %q", res.Findings[0].Category)
	}
}

func TestAnalyzeWithoutFile(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{reply: findingReply})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(""))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{reply: findingReply})

	w := doJSON(t, s, http.MethodPost, "/api/search", map[string]any{"limit": 5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchReturnsMatches(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{reply: findingReply})

	if w := uploadLog(t, s, "auth.log",
		"Jan 15 10:30:01 web-01 sshd[112]: Failed password for root from 10.0.0.9\n"); w.Code != http.StatusOK {
		t.Fatalf("upload: %d", w.Code)
	}

	w := doJSON(t, s, http.MethodPost, "/api/search", map[string]any{"query": "failed password"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Errorf("total = %d, want 1", body.Total)
	}
}

func TestAnalyzeQueryInferenceDown(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{err: errors.New("connection refused")})

	w := doJSON(t, s, http.MethodPost, "/api/analyze-query", map[string]any{"query": "anything wrong?"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestReportEmptyStore(t *testing.T) {
	s, _ := newTestServer(t, &stubInferrer{reply: findingReply})

	w := doJSON(t, s, http.MethodGet, "/api/report", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebSocketStreamsFindings(t *testing.T) {
	s, h := newTestServer(t, &stubInferrer{reply: findingReply})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to subscribe before broadcasting.
	time.Sleep(50 * time.Millisecond)
	h.Broadcast(model.Finding{ID: "f-ws", Category: model.CategoryBruteForce, Severity: model.SeverityHigh})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f model.Finding
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if f.ID != "f-ws" {
		t.Errorf("finding ID = %q, want f-ws", f.ID)
	}
}
