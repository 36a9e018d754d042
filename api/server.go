// Package api serves statement extraction over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/aqlanhadi/stmtscrape/export"
	"github.com/aqlanhadi/stmtscrape/extractor"
	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/aqlanhadi/stmtscrape/metrics"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const maxUploadMemory = 32 << 20

// Config holds the API server configuration
type Config struct {
	Port   string
	Logger *log.Logger
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port: ":8080",
	}
}

// Server represents the HTTP API server
type Server struct {
	config Config
	mux    *http.ServeMux
	logger *log.Logger
}

// New creates a new API server with the given configuration
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	metrics.Init()

	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		logger: logger.WithPrefix("api"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/extract/text", s.handleExtractText)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns the http.Handler for the server
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.config.Port)
	server := &http.Server{
		Addr:              s.config.Port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Row   *int   `json:"row,omitempty"`
	Page  *int   `json:"page,omitempty"`
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	Layout             string
	Password           string
	Format             export.Format
	OpeningBalance     decimal.Decimal
	IncludeTrailingRow bool
	Strict             bool
	TextOnly           bool
}

// handleExtract runs a session over an uploaded PDF.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("received request", "path", r.URL.Path, "remote", r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.logger.Warn("could not parse multipart form", "err", err)
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Could not get uploaded file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("could not read upload", "file", handler.Filename, "err", err)
		http.Error(w, "Could not read file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	opts, err := parseExtractOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	document, err := common.OpenPDFReader(bytes.NewReader(fileBytes), opts.Password)
	if err != nil {
		s.logger.Warn("could not open document", "file", handler.Filename, "err", err)
		http.Error(w, "Could not open PDF: "+err.Error(), http.StatusBadRequest)
		return
	}

	if opts.TextOnly {
		s.handleTextOnly(w, document, handler.Filename)
		return
	}

	s.runSession(w, handler.Filename, document.Pages(), opts)
}

type textRequest struct {
	Pages              []string `json:"pages"`
	OpeningBalance     string   `json:"opening_balance"`
	Layout             string   `json:"layout"`
	Format             string   `json:"format"`
	IncludeTrailingRow bool     `json:"include_trailing_row"`
	Strict             bool     `json:"strict"`
}

// handleExtractText runs a session over page text supplied in the body.
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadMemory)).Decode(&req); err != nil {
		http.Error(w, "Could not decode request: "+err.Error(), http.StatusBadRequest)
		return
	}

	opening, err := decimal.NewFromString(req.OpeningBalance)
	if err != nil {
		http.Error(w, "Invalid opening_balance: "+req.OpeningBalance, http.StatusBadRequest)
		return
	}
	format, err := export.ParseFormat(coalesce(req.Format, string(export.JSON)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.runSession(w, "text", common.PagesFromStrings(req.Pages), ExtractOptions{
		Layout:             req.Layout,
		Format:             format,
		OpeningBalance:     opening,
		IncludeTrailingRow: req.IncludeTrailingRow,
		Strict:             req.Strict,
	})
}

func (s *Server) runSession(w http.ResponseWriter, source string, pages iter.Seq2[string, error], opts ExtractOptions) {
	layout, err := extractor.LayoutFor(opts.Layout)
	if err != nil {
		s.writeExtractError(w, err)
		return
	}

	sessionOpts, err := extractor.OptionsFromConfig()
	if err != nil {
		s.logger.Error("invalid session configuration", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sessionOpts.IncludeTrailingRow = sessionOpts.IncludeTrailingRow || opts.IncludeTrailingRow
	sessionOpts.StrictReconciliation = sessionOpts.StrictReconciliation || opts.Strict
	sessionOpts.Logger = s.logger

	session, err := extractor.NewSession(source, opts.OpeningBalance, layout, pages, sessionOpts)
	if err != nil {
		s.writeExtractError(w, err)
		return
	}

	statement, err := session.Collect()
	if err != nil {
		s.writeExtractError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, opts.Format, statement); err != nil {
		s.logger.Error("could not render statement", "format", opts.Format, "err", err)
		http.Error(w, "Could not render statement: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("X-Session-Id", session.ID)
	if opts.Format == export.XLSX || opts.Format == export.PDF {
		w.Header().Set("Content-Disposition", `attachment; filename="statement.`+string(opts.Format)+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) writeExtractError(w http.ResponseWriter, err error) {
	s.logger.Warn("extraction failed", "err", err)

	resp := errorResponse{Error: err.Error(), Kind: common.KindName(err)}
	var rowErr *common.RowError
	if errors.As(err, &rowErr) {
		resp.Row = &rowErr.Index
		resp.Page = &rowErr.Page
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func parseExtractOptions(r *http.Request) (ExtractOptions, error) {
	opts := ExtractOptions{
		Layout:             coalesce(r.FormValue("layout"), r.URL.Query().Get("layout")),
		Password:           r.FormValue("password"),
		IncludeTrailingRow: formBool(r, "include_trailing_row"),
		Strict:             formBool(r, "strict"),
		TextOnly:           formBool(r, "text_only"),
	}

	format, err := export.ParseFormat(coalesce(r.FormValue("format"), r.URL.Query().Get("format"), string(export.JSON)))
	if err != nil {
		return opts, err
	}
	opts.Format = format

	if opts.TextOnly {
		return opts, nil
	}

	raw := coalesce(r.FormValue("opening_balance"), r.URL.Query().Get("opening_balance"))
	if raw == "" {
		return opts, errors.New("opening_balance is required")
	}
	opening, err := decimal.NewFromString(raw)
	if err != nil {
		return opts, errors.New("invalid opening_balance: " + raw)
	}
	opts.OpeningBalance = opening
	return opts, nil
}

// handleTextOnly returns the raw page text, useful for writing new layouts.
func (s *Server) handleTextOnly(w http.ResponseWriter, document *common.Document, filename string) {
	var pages []string
	for text, err := range document.Pages() {
		if err != nil {
			s.logger.Warn("could not extract text", "file", filename, "err", err)
			http.Error(w, "Could not extract text from file: "+err.Error(), http.StatusBadRequest)
			return
		}
		pages = append(pages, text)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"pages":    pages,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(coalesce(r.FormValue(key), r.URL.Query().Get(key)))
	return v
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
