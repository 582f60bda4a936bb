package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kotae-dev/kotae/internal/answer"
	"github.com/kotae-dev/kotae/internal/audit"
	"github.com/kotae-dev/kotae/internal/auth"
	"github.com/kotae-dev/kotae/internal/chunker"
	"github.com/kotae-dev/kotae/internal/config"
	"github.com/kotae-dev/kotae/internal/llm"
	"github.com/kotae-dev/kotae/internal/loader"
	"github.com/kotae-dev/kotae/internal/retriever"
	"github.com/kotae-dev/kotae/internal/service"
	"github.com/kotae-dev/kotae/internal/vectorstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	sink, err := audit.NewSink(filepath.Join(dir, "audit.db"), filepath.Join(dir, "audit.bleve"), cfg.Audit.ResponseMaxChars)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sink.Close() })

	users, err := auth.NewUserStore(filepath.Join(dir, "users.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { users.Close() })

	store := vectorstore.NewMemoryStore(cfg.Vector.Collection)
	svc := service.New(
		loader.NewLoader(dir),
		chunker.NewSplitter(cfg.Ingest.MaxChunkSize, cfg.Ingest.ChunkOverlap),
		store,
		retriever.NewRetriever(store),
		answer.NewComposer(llm.NewMockClient("Twelve days, per policy.txt.")),
		sink,
		cfg,
		zap.NewNop(),
	)

	srv := NewServer(svc, users, auth.NewSessionManager(30*time.Minute), sink, &cfg.Server, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(ts.URL+"/api/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out.Token
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func uploadTxt(t *testing.T, ts *httptest.Server, token, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filename)
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(fw, content)
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/documents", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin", "admin123")
	if token == "" {
		t.Fatal("empty token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, err := http.Post(ts.URL+"/api/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", resp.StatusCode)
	}
}

func TestUpload_RequiresToken(t *testing.T) {
	ts := newTestServer(t)
	resp := uploadTxt(t, ts, "", "policy.txt", "Vacation is twelve days.")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", resp.StatusCode)
	}
}

func TestUpload_ViewerForbidden(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "viewer", "viewer123")
	resp := uploadTxt(t, ts, token, "policy.txt", "Vacation is twelve days.")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status %d, want 403", resp.StatusCode)
	}
}

func TestUploadAndAsk(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "employee", "employee123")

	resp := uploadTxt(t, ts, token, "policy.txt", "Employees receive twelve vacation days per year.")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d, want 201", resp.StatusCode)
	}
	var report service.IngestReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if report.Documents != 1 || report.Chunks == 0 {
		t.Errorf("report: %+v", report)
	}

	askResp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/ask", token,
		map[string]string{"question": "How many vacation days?"})
	defer askResp.Body.Close()
	if askResp.StatusCode != http.StatusOK {
		t.Fatalf("ask status %d", askResp.StatusCode)
	}
	var out struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(askResp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer != "Twelve days, per policy.txt." {
		t.Errorf("answer: %q", out.Answer)
	}
	if len(out.Sources) != 1 || out.Sources[0] != "policy.txt" {
		t.Errorf("sources: %v", out.Sources)
	}
}

func TestAsk_InvalidK(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "viewer", "viewer123")
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/ask", token,
		map[string]interface{}{"question": "q", "k": 7})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

func TestAuditTrail_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	employee := login(t, ts, "employee", "employee123")

	resp := uploadTxt(t, ts, employee, "policy.txt", "Vacation is twelve days.")
	resp.Body.Close()

	askResp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/ask", employee,
		map[string]string{"question": "vacation days"})
	askResp.Body.Close()

	// Employees cannot read the trail.
	denied := doJSON(t, http.MethodGet, ts.URL+"/api/v1/audit", employee, nil)
	denied.Body.Close()
	if denied.StatusCode != http.StatusForbidden {
		t.Errorf("employee audit status %d, want 403", denied.StatusCode)
	}

	admin := login(t, ts, "admin", "admin123")
	listResp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/audit", admin, nil)
	defer listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("admin audit status %d", listResp.StatusCode)
	}
	var out struct {
		Total   int           `json:"total"`
		Entries []audit.Entry `json:"entries"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || len(out.Entries) != 1 {
		t.Fatalf("trail: %+v", out)
	}
	if out.Entries[0].Actor != "employee" {
		t.Errorf("actor: %s", out.Entries[0].Actor)
	}

	searchResp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/audit/search?q=vacation", admin, nil)
	defer searchResp.Body.Close()
	if searchResp.StatusCode != http.StatusOK {
		t.Fatalf("audit search status %d", searchResp.StatusCode)
	}
	var sout struct {
		Entries []audit.Entry `json:"entries"`
	}
	if err := json.NewDecoder(searchResp.Body).Decode(&sout); err != nil {
		t.Fatal(err)
	}
	if len(sout.Entries) != 1 {
		t.Errorf("search entries: %v", sout.Entries)
	}
}

func TestClear_AdminOnly(t *testing.T) {
	ts := newTestServer(t)

	employee := login(t, ts, "employee", "employee123")
	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/collection", employee, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("employee clear status %d, want 403", resp.StatusCode)
	}

	admin := login(t, ts, "admin", "admin123")
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/collection", admin, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin clear status %d", resp.StatusCode)
	}
}

func TestLogout_InvalidatesToken(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "viewer", "viewer123")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/logout", token, nil)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/stats", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}
