package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prajwal-pl/dnd-pdf-zone/binding"
	"github.com/prajwal-pl/dnd-pdf-zone/export"
	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// RegisterDefaultTools adds the export tools to the server. opts are the
// base export options; export_pdf arguments are applied on top of them.
func RegisterDefaultTools(s *Server, opts ...export.Option) {
	s.AddTool(exportPDFTool(opts))
	s.AddTool(validateTemplateTool())
	s.AddTool(resolveBindingsTool())
	s.AddTool(newTemplateTool())
	s.AddTool(inspectPDFTool())
	s.AddTool(fillFormTool())
}

func objectSchema(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

var (
	templateProp = prop("object", "Template document {id, name, pages: [{id, width, height, background?, fields: [...]}]}, or a project {template, dataBindings}")
	dataProp     = prop("object", "Binding context; field bindings are dotted paths into it. Defaults to the project's dataBindings")
)

// templateArg decodes the "template" argument, accepting a bare template or
// a project, and returns it with the project's bindings.
func templateArg(args map[string]any) (*template.Template, map[string]any, error) {
	raw, ok := args["template"]
	if !ok {
		return nil, nil, errors.New("missing 'template' argument")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding template: %w", err)
	}
	p, err := template.DecodeProject(data)
	if err != nil {
		return nil, nil, err
	}
	return &p.Template, p.DataBindings, nil
}

func dataArg(args map[string]any, fallback map[string]any) map[string]any {
	if d, ok := args["data"].(map[string]any); ok {
		return d
	}
	return fallback
}

// recordsArg returns the "records" argument when it is a non-empty array of
// objects.
func recordsArg(args map[string]any) ([]map[string]any, bool) {
	list, _ := args["records"].([]any)
	if len(list) == 0 {
		return nil, false
	}
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		records = append(records, m)
	}
	return records, true
}

// pdfArg reads a PDF from the "path" argument or the base64 "data" argument.
func pdfArg(args map[string]any) ([]byte, error) {
	if path, _ := args["path"].(string); path != "" {
		return os.ReadFile(path)
	}
	if data, _ := args["pdf"].(string); data != "" {
		return base64.StdEncoding.DecodeString(data)
	}
	return nil, errors.New("one of 'path' or 'pdf' is required")
}

// writeOrEncode saves pdf to the "outputPath" argument or returns it as
// base64 text.
func writeOrEncode(args map[string]any, pdf []byte, summary string) (ToolResult, error) {
	if outputPath, _ := args["outputPath"].(string); outputPath != "" {
		if err := os.WriteFile(outputPath, pdf, 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return textResult("%s: %s (%d bytes)", summary, outputPath, len(pdf)), nil
	}
	return ToolResult{Content: []ContentBlock{
		{Type: "text", Text: fmt.Sprintf("%s (%d bytes)", summary, len(pdf))},
		{Type: "resource", MIMEType: export.MediaType, Data: base64.StdEncoding.EncodeToString(pdf)},
	}}, nil
}

func exportPDFTool(base []export.Option) Tool {
	return Tool{
		Name:        "export_pdf",
		Description: "Render a template with a data context into a PDF, either as flattened graphics or as a fillable form. Returns the PDF as base64 unless outputPath is given, and lists any fallbacks taken (unreachable images, bad barcodes, omitted fields).",
		InputSchema: objectSchema([]string{"template"}, map[string]any{
			"template":       templateProp,
			"data":           dataProp,
			"records":        map[string]any{"type": "array", "items": map[string]any{"type": "object"}, "description": "Batch mode: one binding context per document; the documents are merged into one flattened PDF"},
			"acroform":       prop("boolean", "Produce interactive form fields for text, date and checkbox fields"),
			"flatten":        prop("boolean", "With acroform, burn the form fields into static content"),
			"staticFallback": prop("boolean", "With acroform, draw image, signature, QR and barcode fields statically instead of omitting them"),
			"outputPath":     prop("string", "Optional file path to save the PDF"),
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			tpl, bindings, err := templateArg(args)
			if err != nil {
				return ToolResult{}, err
			}
			opts := append([]export.Option(nil), base...)
			if v, ok := args["acroform"].(bool); ok {
				opts = append(opts, export.WithAcroForm(v))
			}
			if v, ok := args["flatten"].(bool); ok {
				opts = append(opts, export.WithFlatten(v))
			}
			if v, ok := args["staticFallback"].(bool); ok {
				opts = append(opts, export.WithStaticFallback(v))
			}

			var res *export.Result
			if records, ok := recordsArg(args); ok {
				res, err = export.ExportBatch(ctx, tpl, records, opts...)
			} else {
				res, err = export.Export(ctx, tpl, dataArg(args, bindings), opts...)
			}
			if err != nil {
				return ToolResult{}, err
			}
			summary := fmt.Sprintf("PDF exported: %d page(s), %d form field(s)", res.Pages, res.Widgets)
			if len(res.Warnings) > 0 {
				lines := make([]string, len(res.Warnings))
				for i, w := range res.Warnings {
					lines[i] = "- " + w.String()
				}
				summary += fmt.Sprintf(", %d warning(s):\n%s\n", len(res.Warnings), strings.Join(lines, "\n"))
			}
			return writeOrEncode(args, res.Data, summary)
		},
	}
}

func validateTemplateTool() Tool {
	return Tool{
		Name:        "validate_template",
		Description: "Check a template against the schema: geometry, unique ids, page references, field types and styles. Lists every problem with its path.",
		InputSchema: objectSchema([]string{"template"}, map[string]any{
			"template": templateProp,
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			_, _, err := templateArg(args)
			var ve *template.ValidationError
			switch {
			case err == nil:
				return textResult("Template is valid."), nil
			case errors.As(err, &ve):
				lines := make([]string, len(ve.Problems))
				for i, p := range ve.Problems {
					lines[i] = "- " + p.String()
				}
				return ToolResult{
					Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Template is invalid (%d problem(s)):\n%s", len(ve.Problems), strings.Join(lines, "\n"))}},
					IsError: true,
				}, nil
			default:
				return ToolResult{}, err
			}
		},
	}
}

func resolveBindingsTool() Tool {
	return Tool{
		Name:        "resolve_bindings",
		Description: "Apply a data context to a template's field bindings and return the resolved template JSON. Unresolved paths leave fields unchanged.",
		InputSchema: objectSchema([]string{"template"}, map[string]any{
			"template": templateProp,
			"data":     dataProp,
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			tpl, bindings, err := templateArg(args)
			if err != nil {
				return ToolResult{}, err
			}
			out, err := json.MarshalIndent(binding.Resolve(tpl, dataArg(args, bindings)), "", "  ")
			if err != nil {
				return ToolResult{}, err
			}
			return ToolResult{Content: []ContentBlock{{Type: "text", MIMEType: "application/json", Text: string(out)}}}, nil
		},
	}
}

func newTemplateTool() Tool {
	return Tool{
		Name:        "new_template",
		Description: "Create an empty template with one page and optional fields of the given types stacked from the top-left corner.",
		InputSchema: objectSchema([]string{"name"}, map[string]any{
			"name":   prop("string", "Template name"),
			"width":  prop("number", "Page width in points (default 595)"),
			"height": prop("number", "Page height in points (default 842)"),
			"fields": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "enum": template.FieldTypes},
				"description": "Field types to add",
			},
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			name, _ := args["name"].(string)
			tpl := template.NewTemplate(name)
			p := template.NewPage()
			if w, ok := args["width"].(float64); ok {
				p.Width = w
			}
			if h, ok := args["height"].(float64); ok {
				p.Height = h
			}
			tpl.AddPage(p)

			types, _ := args["fields"].([]any)
			for i, v := range types {
				typ, _ := v.(string)
				f, err := template.NewField(template.FieldType(typ), p.ID, 40, float64(40+36*i), 160, 24)
				if err != nil {
					return ToolResult{}, err
				}
				f.Common().Name = fmt.Sprintf("%s%d", typ, i+1)
				if err := tpl.AddField(f); err != nil {
					return ToolResult{}, err
				}
			}
			if err := template.Validate(tpl); err != nil {
				return ToolResult{}, err
			}
			out, err := json.MarshalIndent(tpl, "", "  ")
			if err != nil {
				return ToolResult{}, err
			}
			return ToolResult{Content: []ContentBlock{{Type: "text", MIMEType: "application/json", Text: string(out)}}}, nil
		},
	}
}

func inspectPDFTool() Tool {
	return Tool{
		Name:        "inspect_pdf",
		Description: "Read a PDF's page count and interactive form fields (name, type, value, rectangle, page).",
		InputSchema: objectSchema(nil, map[string]any{
			"path": prop("string", "Path to the PDF file"),
			"pdf":  prop("string", "Base64 PDF data, if no path is given"),
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			pdf, err := pdfArg(args)
			if err != nil {
				return ToolResult{}, err
			}
			info, err := form.Inspect(pdf)
			if err != nil {
				return ToolResult{}, err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return ToolResult{}, err
			}
			return ToolResult{Content: []ContentBlock{{Type: "text", MIMEType: "application/json", Text: string(out)}}}, nil
		},
	}
}

func fillFormTool() Tool {
	return Tool{
		Name:        "fill_form",
		Description: "Fill the form fields of an exported PDF with provided values. Checkboxes accept true, yes, on or 1.",
		InputSchema: objectSchema([]string{"values"}, map[string]any{
			"path":       prop("string", "Path to the input PDF with form fields"),
			"pdf":        prop("string", "Base64 PDF data, if no path is given"),
			"values":     prop("object", "Map of field names to values"),
			"outputPath": prop("string", "Optional path for the filled PDF"),
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			pdf, err := pdfArg(args)
			if err != nil {
				return ToolResult{}, err
			}
			raw, _ := args["values"].(map[string]any)
			if len(raw) == 0 {
				return ToolResult{}, errors.New("'values' must name at least one field")
			}
			values := make(map[string]string, len(raw))
			for k, v := range raw {
				values[k] = fmt.Sprint(v)
			}
			out, err := form.Fill(pdf, values)
			if err != nil {
				return ToolResult{}, err
			}
			return writeOrEncode(args, out, fmt.Sprintf("Filled %d form field(s)", len(values)))
		},
	}
}
