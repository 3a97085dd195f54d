package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/binding"
	"github.com/prajwal-pl/dnd-pdf-zone/export"
	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// ExportOptions overrides the configured export options for one request.
type ExportOptions struct {
	AcroForm       *bool `json:"acroform,omitempty"`
	Flatten        *bool `json:"flatten,omitempty"`
	StaticFallback *bool `json:"staticFallback,omitempty"`
}

// Request is the body of the export and resolve endpoints. The template may
// also be sent bare, or as a project whose dataBindings act as the default
// data. A non-empty Records turns an export into a merged batch with one
// document per record.
type Request struct {
	Template     json.RawMessage  `json:"template"`
	Data         map[string]any   `json:"data,omitempty"`
	DataBindings map[string]any   `json:"dataBindings,omitempty"`
	Records      []map[string]any `json:"records,omitempty"`
	Options      ExportOptions    `json:"options"`
}

// ExportResponse is returned by POST /export when the client accepts JSON.
type ExportResponse struct {
	MediaType string           `json:"mediaType"`
	Data      string           `json:"data"` // base64
	Pages     int              `json:"pages"`
	Widgets   int              `json:"widgets"`
	Warnings  pdfzone.Warnings `json:"warnings"`
}

// ValidateResponse is returned by POST /validate.
type ValidateResponse struct {
	Valid    bool               `json:"valid"`
	Problems []template.Problem `json:"problems,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// readProject decodes the request body into a validated template and its
// binding data. It writes the error response itself and reports false on
// failure.
func (s *Server) readProject(w http.ResponseWriter, r *http.Request) (*template.Template, *Request, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			sendError(w, http.StatusBadRequest, "failed to read request body")
		}
		return nil, nil, false
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, nil, false
	}
	raw := []byte(req.Template)
	if len(raw) == 0 {
		raw = body
	}
	tpl, err := template.Decode(raw)
	if err != nil {
		writeDecodeError(w, err)
		return nil, nil, false
	}
	if req.Data == nil {
		req.Data = req.DataBindings
	}
	return tpl, &req, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var ve *template.ValidationError
	if errors.As(err, &ve) {
		sendJSON(w, http.StatusUnprocessableEntity, ValidateResponse{Problems: ve.Problems})
		return
	}
	sendError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	tpl, req, ok := s.readProject(w, r)
	if !ok {
		return
	}
	o := req.Options

	opts := s.config.Options(s.fetcher)
	acroForm := s.config.Export.AcroForm
	if o.AcroForm != nil {
		acroForm = *o.AcroForm
		opts = append(opts, export.WithAcroForm(acroForm))
	}
	if o.Flatten != nil {
		opts = append(opts, export.WithFlatten(*o.Flatten))
	}
	if o.StaticFallback != nil {
		opts = append(opts, export.WithStaticFallback(*o.StaticFallback))
	}
	opts = append(opts, export.WithLogger(s.logger.With("template", tpl.ID)))

	start := time.Now()
	var res *export.Result
	var err error
	mode := "flattened"
	switch {
	case len(req.Records) > 0:
		mode = "batch"
		res, err = export.ExportBatch(r.Context(), tpl, req.Records, opts...)
	default:
		if acroForm {
			mode = "interactive"
		}
		res, err = export.Export(r.Context(), tpl, req.Data, opts...)
	}
	if s.metrics != nil {
		var size int
		var warnings pdfzone.Warnings
		if res != nil {
			size, warnings = len(res.Data), res.Warnings
		}
		s.metrics.ObserveExport(mode, time.Since(start), size, warnings, err)
	}
	if err != nil {
		s.writeExportError(w, err)
		return
	}

	if acceptsJSON(r) {
		sendJSON(w, http.StatusOK, ExportResponse{
			MediaType: res.MediaType,
			Data:      base64.StdEncoding.EncodeToString(res.Data),
			Pages:     res.Pages,
			Widgets:   res.Widgets,
			Warnings:  res.Warnings,
		})
		return
	}
	w.Header().Set("Content-Type", res.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Pdfzone-Warnings", strconv.Itoa(len(res.Warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

func (s *Server) writeExportError(w http.ResponseWriter, err error) {
	var ve *template.ValidationError
	switch {
	case errors.As(err, &ve):
		sendJSON(w, http.StatusUnprocessableEntity, ValidateResponse{Problems: ve.Problems})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		sendError(w, http.StatusServiceUnavailable, "export canceled")
	default:
		s.logger.Error("export failed", "error", err)
		sendError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.readProject(w, r); !ok {
		return
	}
	sendJSON(w, http.StatusOK, ValidateResponse{Valid: true})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	tpl, req, ok := s.readProject(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, binding.Resolve(tpl, req.Data))
}

// handleInspect reads the form fields of an uploaded PDF.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		sendError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	info, err := form.Inspect(body)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	sendJSON(w, http.StatusOK, info)
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") || r.URL.Query().Get("format") == "json"
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, map[string]string{"error": message})
}
