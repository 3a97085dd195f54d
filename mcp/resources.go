package mcp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// RegisterDefaultResources adds the reference and inspection resources.
// Resources use the pdfzone:// scheme.
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URI:         "pdfzone://schema/field-types",
		Name:        "Field Types",
		Description: "Field types, barcode formats, image fit modes and text alignments accepted in templates.",
		MIMEType:    "application/json",
		Handler:     handleFieldTypesResource,
	})

	s.AddResource(Resource{
		URI:         "pdfzone://form-fields",
		Name:        "PDF Form Fields",
		Description: "List all form fields in a PDF. Pass the file path as a query parameter: pdfzone://form-fields?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handleFormFieldsResource,
	})

	s.AddResource(Resource{
		URI:         "pdfzone://template",
		Name:        "Template Summary",
		Description: "Summarize a template file (pages, fields per type, bindings). Pass the file path as a query parameter: pdfzone://template?path=/path/to/template.json",
		MIMEType:    "application/json",
		Handler:     handleTemplateResource,
	})
}

func jsonContent(uri string, v any) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(data)}}, nil
}

func pathFromURI(uri string) (string, error) {
	_, query, _ := strings.Cut(uri, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("parsing query: %w", err)
	}
	path := values.Get("path")
	if path == "" {
		return "", fmt.Errorf("missing 'path' parameter in URI")
	}
	return path, nil
}

func handleFieldTypesResource(uri string) ([]ResourceContent, error) {
	return jsonContent(uri, map[string]any{
		"fieldTypes":     template.FieldTypes,
		"widgetTypes":    []template.FieldType{template.TypeText, template.TypeDate, template.TypeCheckbox},
		"barcodeFormats": []string{template.BarcodeCode128, template.BarcodeCode39, template.BarcodeEAN13, template.BarcodePDF417},
		"objectFit":      []string{template.FitContain, template.FitCover, template.FitFill},
		"align":          []string{template.AlignLeft, template.AlignCenter, template.AlignRight},
		"defaults": map[string]any{
			"pageWidth":  template.DefaultPageWidth,
			"pageHeight": template.DefaultPageHeight,
			"fontSize":   template.DefaultFontSize,
		},
	})
}

func handleFormFieldsResource(uri string) ([]ResourceContent, error) {
	path, err := pathFromURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	info, err := form.Inspect(data)
	if err != nil {
		return nil, err
	}
	return jsonContent(uri, info)
}

type templateSummary struct {
	ID       string                     `json:"id"`
	Name     string                     `json:"name"`
	Pages    int                        `json:"pages"`
	Fields   map[template.FieldType]int `json:"fields"`
	Bindings []string                   `json:"bindings,omitempty"`
}

func handleTemplateResource(uri string) ([]ResourceContent, error) {
	path, err := pathFromURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	p, err := template.DecodeProject(data)
	if err != nil {
		return nil, err
	}
	tpl := &p.Template

	sum := templateSummary{ID: tpl.ID, Name: tpl.Name, Pages: len(tpl.Pages), Fields: map[template.FieldType]int{}}
	for _, pg := range tpl.Pages {
		for _, f := range pg.Fields {
			sum.Fields[f.Type()]++
			if b := f.Common().Binding; b != "" {
				sum.Bindings = append(sum.Bindings, b)
			}
		}
	}
	return jsonContent(uri, sum)
}
