package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/internal/config"
	"github.com/prajwal-pl/dnd-pdf-zone/internal/metrics"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

const tplJSON = `{
  "id": "t1",
  "updatedAt": "2024-01-15T10:00:00Z",
  "pages": [{"id": "p1", "width": 595, "height": 842, "fields": [
    {"type": "text", "id": "f1", "pageId": "p1", "x": 50, "y": 50, "width": 120, "height": 24,
     "name": "fullName", "binding": "user.name"},
    {"type": "checkbox", "id": "f2", "pageId": "p1", "x": 50, "y": 100, "width": 12, "height": 12,
     "name": "agree", "binding": "user.agreed"}
  ]}]
}`

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *metrics.Metrics) {
	t.Helper()
	cfg := config.Default()
	cfg.Export.Compress = false
	cfg.Assets.Disabled = true
	if mutate != nil {
		mutate(cfg)
	}
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, m, logger, "test"), m
}

func do(t *testing.T, s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
}

func TestExportPDF(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := `{"template": ` + tplJSON + `, "data": {"user": {"name": "Ada", "agreed": true}}}`
	rec := do(t, s, "POST", "/api/v1/export", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Pdfzone-Warnings") != "0" {
		t.Errorf("warnings header = %q", rec.Header().Get("X-Pdfzone-Warnings"))
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("BT 52.00 780.00 Td (Ada) Tj ET")) {
		t.Error("bound value not rendered")
	}
}

func TestExportJSONInteractive(t *testing.T) {
	s, _ := newTestServer(t, nil)
	project := `{"id": "pr1", "template": ` + tplJSON + `, "dataBindings": {"user": {"name": "Grace"}},
	  "options": {"acroform": true}}`
	rec := do(t, s, "POST", "/api/v1/export", project, "Accept", "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp ExportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.MediaType != "application/pdf" || resp.Widgets != 2 || resp.Pages != 1 {
		t.Errorf("response = %+v", resp)
	}
	pdf, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	info, err := form.Inspect(pdf)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(info.Fields) != 2 || info.Fields[0].Value != "Grace" || info.Fields[1].Checked {
		t.Errorf("fields = %+v", info.Fields)
	}

	// the same document through the inspect endpoint
	rec = do(t, s, "POST", "/api/v1/inspect", string(pdf))
	if rec.Code != http.StatusOK {
		t.Fatalf("inspect status = %d: %s", rec.Code, rec.Body)
	}
	var got form.Info
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*info, got); diff != "" {
		t.Errorf("inspect endpoint (-want +got):\n%s", diff)
	}
}

func TestExportWarnings(t *testing.T) {
	s, _ := newTestServer(t, nil)
	tpl := strings.Replace(tplJSON, `"fields": [`, `"background": "https://example.invalid/bg.png", "fields": [`, 1)
	rec := do(t, s, "POST", "/api/v1/export?format=json", tpl)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Warnings []struct {
			Kind   string `json:"kind"`
			PageID string `json:"pageId"`
			Error  string `json:"error"`
		} `json:"warnings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Kind != "asset_fetch" || resp.Warnings[0].PageID != "p1" || resp.Warnings[0].Error == "" {
		t.Errorf("warnings = %+v", resp.Warnings)
	}
}

func TestValidate(t *testing.T) {
	s, _ := newTestServer(t, nil)
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPath   string
	}{
		{"valid", tplJSON, http.StatusOK, ""},
		{"valid project", `{"template": ` + tplJSON + `}`, http.StatusOK, ""},
		{"duplicate id", strings.Replace(tplJSON, `"id": "f2"`, `"id": "f1"`, 1), http.StatusUnprocessableEntity, "pages[0].fields[1].id"},
		{"unknown type", strings.Replace(tplJSON, `"type": "checkbox"`, `"type": "slider"`, 1), http.StatusUnprocessableEntity, "fields[1].type"},
		{"syntax", `{"pages": [`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "POST", "/api/v1/validate", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantPath == "" {
				return
			}
			var resp ValidateResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Valid || len(resp.Problems) == 0 || !strings.HasSuffix(resp.Problems[0].Path, tt.wantPath) {
				t.Errorf("response = %+v, want a problem at %s", resp, tt.wantPath)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := `{"template": ` + tplJSON + `, "data": {"user": {"name": "Ada", "agreed": "yes"}}}`
	rec := do(t, s, "POST", "/api/v1/resolve", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	tpl, err := template.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("resolved template does not decode: %v", err)
	}
	fields := tpl.Pages[0].Fields
	if v := fields[0].(*template.TextField).Value; v != "Ada" {
		t.Errorf("text value = %q", v)
	}
	if !fields[1].(*template.CheckboxField).Checked {
		t.Error("checkbox not checked")
	}
}

func TestBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 64 })
	rec := do(t, s, "POST", "/api/v1/validate", tplJSON)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, "POST", "/api/v1/export", tplJSON)
	rec := do(t, s, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{
		`pdfzone_exports_total{mode="flattened",result="ok"} 1`,
		`pdfzone_http_requests_total{method="POST",path="/api/v1/export",status="200"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %s", want)
		}
	}

	s, _ = newTestServer(t, func(c *config.Config) { c.Metrics.Enabled = false })
	if rec := do(t, s, "GET", "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics status = %d", rec.Code)
	}
}

func TestExportBatch(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := `{"template": ` + tplJSON + `, "records": [{"user": {"name": "Ada"}}, {"user": {"name": "Grace"}}],
	  "options": {"acroform": true}}`
	rec := do(t, s, "POST", "/api/v1/export?format=json", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp ExportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Pages != 2 || resp.Widgets != 0 {
		t.Errorf("response = %+v", resp)
	}

	rec = do(t, s, "GET", "/metrics", "")
	if !strings.Contains(rec.Body.String(), `pdfzone_exports_total{mode="batch",result="ok"} 1`) {
		t.Error("batch export not counted")
	}
}
