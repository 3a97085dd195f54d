package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// readInput reads a file, or stdin for "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to a file, or to stdout for "" and "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// loadProject reads a template or project file and the optional data file.
// An explicit data file replaces the project's dataBindings.
func loadProject(path, dataPath string, stdin io.Reader) (*template.Template, map[string]any, error) {
	raw, err := readInput(path, stdin)
	if err != nil {
		return nil, nil, fmt.Errorf("reading template: %w", err)
	}
	p, err := template.DecodeProject(raw)
	if err != nil {
		return nil, nil, err
	}
	data := p.DataBindings
	if dataPath != "" {
		raw, err := readInput(dataPath, stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("reading data: %w", err)
		}
		data = nil
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, nil, fmt.Errorf("parsing data: %w", err)
		}
	}
	return &p.Template, data, nil
}

// loadRecords reads a JSON array of binding contexts.
func loadRecords(path string, stdin io.Reader) ([]map[string]any, error) {
	raw, err := readInput(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing batch: %w", err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
