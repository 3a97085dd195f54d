package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prajwal-pl/dnd-pdf-zone/export"
	"github.com/prajwal-pl/dnd-pdf-zone/form"
)

func newTestServer() *Server {
	s := NewServerWithIO(nil, nil, "test", nil)
	RegisterDefaultTools(s, export.WithFetcher(nil), export.WithCompression(false))
	RegisterDefaultResources(s)
	return s
}

func sendRequest(t *testing.T, s *Server, method string, id int, params any) jsonrpcResponse {
	t.Helper()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	return resp
}

// callTool invokes a tool and decodes its result.
func callTool(t *testing.T, s *Server, name string, args map[string]any) ToolResult {
	t.Helper()
	resp := sendRequest(t, s, "tools/call", 1, map[string]any{"name": name, "arguments": args})
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %v", name, resp.Error.Message)
	}
	data, _ := json.Marshal(resp.Result)
	var res ToolResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("%s: decoding result: %v", name, err)
	}
	return res
}

var testTemplate = map[string]any{
	"id": "t1",
	"pages": []any{map[string]any{
		"id": "p1", "width": 595, "height": 842,
		"fields": []any{
			map[string]any{"type": "text", "id": "f1", "pageId": "p1", "x": 50, "y": 50,
				"width": 120, "height": 24, "name": "fullName", "binding": "user.name"},
			map[string]any{"type": "barcode", "id": "f2", "pageId": "p1", "x": 50, "y": 100,
				"width": 200, "height": 60, "name": "sku", "value": "ABC-123"},
		},
	}},
}

func TestServerInitialize(t *testing.T) {
	s := newTestServer()

	resp := sendRequest(t, s, "initialize", 1, map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatal("result is not a map")
	}
	if result["protocolVersion"] != ProtocolVersion {
		t.Fatalf("unexpected protocol version: %v", result["protocolVersion"])
	}
	serverInfo, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("missing serverInfo")
	}
	if serverInfo["name"] != "pdfzone-mcp" || serverInfo["version"] != "test" {
		t.Fatalf("unexpected server info: %v", serverInfo)
	}
}

func TestServerToolsList(t *testing.T) {
	s := newTestServer()
	resp := sendRequest(t, s, "tools/list", 2, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]any)
	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatal("tools is not an array")
	}
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	want := "export_pdf,fill_form,inspect_pdf,new_template,resolve_bindings,validate_template"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("tools = %s, want %s", got, want)
	}
}

func TestServerResourcesList(t *testing.T) {
	s := newTestServer()
	resp := sendRequest(t, s, "resources/list", 3, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	resources, ok := resp.Result.(map[string]any)["resources"].([]any)
	if !ok {
		t.Fatal("resources is not an array")
	}
	if len(resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(resources))
	}
}

func TestServerPing(t *testing.T) {
	resp := sendRequest(t, newTestServer(), "ping", 4, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	resp := sendRequest(t, newTestServer(), "nonexistent/method", 5, nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Fatalf("expected error code -32601, got %d", resp.Error.Code)
	}
}

func TestServerUnknownTool(t *testing.T) {
	resp := sendRequest(t, newTestServer(), "tools/call", 6, map[string]any{
		"name":      "nonexistent_tool",
		"arguments": map[string]any{},
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestExportPDFTool(t *testing.T) {
	s := newTestServer()
	res := callTool(t, s, "export_pdf", map[string]any{
		"template": testTemplate,
		"data":     map[string]any{"user": map[string]any{"name": "Ada"}},
	})
	if res.IsError || len(res.Content) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Content[0].Text, "1 page(s)") {
		t.Errorf("summary = %q", res.Content[0].Text)
	}
	pdf, err := base64.StdEncoding.DecodeString(res.Content[1].Data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Content[1].MIMEType != "application/pdf" || !bytes.Contains(pdf, []byte("(Ada) Tj")) {
		t.Error("exported PDF does not contain the bound value")
	}
}

func TestExportPDFToolBatch(t *testing.T) {
	s := newTestServer()
	res := callTool(t, s, "export_pdf", map[string]any{
		"template": testTemplate,
		"records": []any{
			map[string]any{"user": map[string]any{"name": "Ada"}},
			map[string]any{"user": map[string]any{"name": "Grace"}},
		},
		"acroform": true,
	})
	if res.IsError || len(res.Content) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Content[0].Text, "2 page(s), 0 form field(s)") {
		t.Errorf("summary = %q", res.Content[0].Text)
	}
}

func TestExportPDFToolInteractive(t *testing.T) {
	s := newTestServer()
	out := filepath.Join(t.TempDir(), "form.pdf")
	res := callTool(t, s, "export_pdf", map[string]any{
		"template":   map[string]any{"template": testTemplate, "dataBindings": map[string]any{"user": map[string]any{"name": "Grace"}}},
		"acroform":   true,
		"outputPath": out,
	})
	if res.IsError {
		t.Fatalf("unexpected error: %+v", res)
	}
	text := res.Content[0].Text
	if !strings.Contains(text, "1 form field(s)") || !strings.Contains(text, "omitted") {
		t.Errorf("summary = %q", text)
	}

	// fill the exported form through the server, then read it back
	res = callTool(t, s, "fill_form", map[string]any{"path": out, "values": map[string]any{"fullName": "Lin"}})
	if res.IsError {
		t.Fatalf("fill_form: %+v", res)
	}
	filled, err := base64.StdEncoding.DecodeString(res.Content[1].Data)
	if err != nil {
		t.Fatal(err)
	}
	res = callTool(t, s, "inspect_pdf", map[string]any{"pdf": base64.StdEncoding.EncodeToString(filled)})
	var info form.Info
	if err := json.Unmarshal([]byte(res.Content[0].Text), &info); err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if len(info.Fields) != 1 || info.Fields[0].Name != "fullName" || info.Fields[0].Value != "Lin" {
		t.Errorf("fields = %+v", info.Fields)
	}
}

func TestValidateTemplateTool(t *testing.T) {
	s := newTestServer()
	if res := callTool(t, s, "validate_template", map[string]any{"template": testTemplate}); res.IsError {
		t.Errorf("valid template reported invalid: %+v", res)
	}

	bad := map[string]any{"id": "t2", "pages": []any{map[string]any{"id": "p1", "width": -1, "height": 842, "fields": []any{}}}}
	res := callTool(t, s, "validate_template", map[string]any{"template": bad})
	if !res.IsError || !strings.Contains(res.Content[0].Text, "pages[0].width") {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResolveBindingsTool(t *testing.T) {
	s := newTestServer()
	res := callTool(t, s, "resolve_bindings", map[string]any{
		"template": testTemplate,
		"data":     map[string]any{"user": map[string]any{"name": "Ada"}},
	})
	if res.IsError || !strings.Contains(res.Content[0].Text, `"value": "Ada"`) {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestNewTemplateTool(t *testing.T) {
	s := newTestServer()
	res := callTool(t, s, "new_template", map[string]any{"name": "Invoice", "fields": []any{"text", "qr"}})
	if res.IsError {
		t.Fatalf("unexpected error: %+v", res)
	}
	var tpl struct {
		Name  string `json:"name"`
		Pages []struct {
			Width  float64          `json:"width"`
			Fields []map[string]any `json:"fields"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(res.Content[0].Text), &tpl); err != nil {
		t.Fatal(err)
	}
	if tpl.Name != "Invoice" || len(tpl.Pages) != 1 || tpl.Pages[0].Width != 595 || len(tpl.Pages[0].Fields) != 2 {
		t.Errorf("template = %+v", tpl)
	}

	res = callTool(t, s, "new_template", map[string]any{"name": "x", "fields": []any{"slider"}})
	if !res.IsError {
		t.Error("unknown field type accepted")
	}
}

func TestTemplateResource(t *testing.T) {
	s := newTestServer()
	path := filepath.Join(t.TempDir(), "t.json")
	data, _ := json.Marshal(testTemplate)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	resp := sendRequest(t, s, "resources/read", 8, map[string]any{"uri": "pdfzone://template?path=" + path})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Data)
	}
	out, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(out), `\"barcode\": 1`) || !strings.Contains(string(out), "user.name") {
		t.Errorf("unexpected summary: %s", out)
	}

	resp = sendRequest(t, s, "resources/read", 9, map[string]any{"uri": "pdfzone://template"})
	if resp.Error == nil {
		t.Error("expected error for missing path")
	}
}

func TestServerMultipleRequests(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"pdfzone://schema/field-types"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	}

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader(input), &output, "test", nil)
	RegisterDefaultTools(s)
	RegisterDefaultResources(s)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d: %s", len(lines), output.String())
	}
	for i, line := range lines {
		var resp jsonrpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d: unmarshal error: %v\nline: %s", i, err, line)
		}
		if resp.Error != nil {
			t.Errorf("response %d: unexpected error: %s", i, resp.Error.Message)
		}
	}
}

func TestToolAddTool(t *testing.T) {
	s := NewServerWithIO(nil, nil, "test", nil)
	s.AddTool(Tool{
		Name:        "custom_tool",
		Description: "A custom test tool",
		InputSchema: objectSchema(nil, map[string]any{}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			return textResult("custom result"), nil
		},
	})

	res := callTool(t, s, "custom_tool", map[string]any{})
	if len(res.Content) != 1 || res.Content[0].Text != "custom result" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
