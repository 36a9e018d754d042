package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aqlanhadi/stmtscrape/export"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const zenithPage = "01/02/202401/02/2024POS PURCHASENGN200.00NGN800.00" +
	"02/02/202402/02/2024TRANSFER INNGN50.00NGN850.00" +
	"03/02/202403/02/2024"

func newTestServer() *Server {
	viper.Reset()
	cfg := DefaultConfig()
	cfg.Logger = log.New(io.Discard)
	return New(cfg)
}

func postText(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func textBody(t *testing.T, req textRequest) string {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to encode request: %v", err)
	}
	return string(b)
}

func TestNew(t *testing.T) {
	server := newTestServer()

	if server == nil {
		t.Fatal("Expected server to be created")
	}
	if server.mux == nil {
		t.Fatal("Expected mux to be initialized")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected port ':8080', got '%s'", cfg.Port)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer()
	postText(t, server, textBody(t, textRequest{Pages: []string{zenithPage}, OpeningBalance: "1000.00"}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "stmtscrape_sessions_total") {
		t.Error("Expected session counter in metrics output")
	}
}

func TestExtractEndpoint_MethodNotAllowed(t *testing.T) {
	server := newTestServer()

	for _, path := range []string{"/extract", "/extract/text"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		server.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", path, w.Code)
		}
	}
}

func TestExtractEndpoint_NoFile(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data")
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestExtractEndpoint_InvalidFile(t *testing.T) {
	server := newTestServer()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("opening_balance", "1000.00")
	part, _ := writer.CreateFormFile("file", "test.pdf")
	part.Write([]byte("not a valid pdf"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestParseExtractOptions_FormValues(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("opening_balance", "1,000.00")
	writer.WriteField("layout", "ZENITH")
	writer.WriteField("format", "csv")
	writer.WriteField("strict", "true")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ParseMultipartForm(32 << 20)

	if _, err := parseExtractOptions(req); err == nil {
		t.Error("Expected error for opening balance with thousands separator")
	}

	req = httptest.NewRequest(http.MethodPost, "/extract?opening_balance=1000.00&layout=ZENITH&format=csv&strict=true", nil)
	opts, err := parseExtractOptions(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Layout != "ZENITH" {
		t.Errorf("Expected layout 'ZENITH', got '%s'", opts.Layout)
	}
	if opts.Format != export.CSV {
		t.Errorf("Expected format csv, got '%s'", opts.Format)
	}
	if !opts.Strict {
		t.Error("Expected Strict to be true")
	}
	if opts.OpeningBalance.String() != "1000" {
		t.Errorf("Expected opening balance 1000, got %s", opts.OpeningBalance)
	}
}

func TestParseExtractOptions_QueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract?text_only=true&include_trailing_row=1", nil)

	opts, err := parseExtractOptions(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !opts.TextOnly {
		t.Error("Expected TextOnly to be true")
	}
	if !opts.IncludeTrailingRow {
		t.Error("Expected IncludeTrailingRow to be true")
	}
	if opts.Format != export.JSON {
		t.Errorf("Expected default format json, got '%s'", opts.Format)
	}
}

func TestParseExtractOptions_MissingOpeningBalance(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract", nil)

	if _, err := parseExtractOptions(req); err == nil {
		t.Error("Expected error for missing opening balance")
	}
}

func TestExtractText_JSON(t *testing.T) {
	server := newTestServer()

	w := postText(t, server, textBody(t, textRequest{Pages: []string{zenithPage}, OpeningBalance: "1000.00"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Session-Id") == "" {
		t.Error("Expected session id header")
	}

	var response struct {
		ClosingBalance string `json:"closing_balance"`
		Transactions   []struct {
			TransactionType string `json:"transaction_type"`
		} `json:"transactions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(response.Transactions))
	}
	if response.Transactions[0].TransactionType != "DEBIT" || response.Transactions[1].TransactionType != "CREDIT" {
		t.Errorf("Unexpected classification: %+v", response.Transactions)
	}
	if response.ClosingBalance != "850" {
		t.Errorf("Expected closing balance 850, got %s", response.ClosingBalance)
	}
}

func TestExtractText_CSV(t *testing.T) {
	server := newTestServer()

	w := postText(t, server, textBody(t, textRequest{Pages: []string{zenithPage}, OpeningBalance: "1000.00", Format: "csv"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("Expected text/csv, got '%s'", w.Header().Get("Content-Type"))
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(rows))
	}
	if rows[1][2] != "200.00" || rows[1][4] != "DEBIT" {
		t.Errorf("Unexpected first row: %v", rows[1])
	}
}

func TestExtractText_RowFailure(t *testing.T) {
	server := newTestServer()
	page := "01/02/202401/02/2024POS PURCHASENGN200.00NGN800.00" +
		"02/02/202402/02/2024REVERSAL 850.00" +
		"03/02/202403/02/2024"

	w := postText(t, server, textBody(t, textRequest{Pages: []string{page}, OpeningBalance: "1000.00"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", w.Code)
	}

	var response errorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Kind != "FieldNotFound" {
		t.Errorf("Expected kind FieldNotFound, got '%s'", response.Kind)
	}
	if response.Row == nil || *response.Row != 1 {
		t.Errorf("Expected row 1, got %v", response.Row)
	}
	if response.Page == nil || *response.Page != 1 {
		t.Errorf("Expected page 1, got %v", response.Page)
	}
}

func TestExtractText_NumericFailureKind(t *testing.T) {
	server := newTestServer()
	page := "01/02/202401/02/2024POS PURCHASENGN2O0.00NGN800.00" +
		"02/02/202402/02/2024"

	w := postText(t, server, textBody(t, textRequest{Pages: []string{page}, OpeningBalance: "1000.00"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", w.Code)
	}

	var response errorResponse
	json.NewDecoder(w.Body).Decode(&response)
	if response.Kind != "NumericParseError" {
		t.Errorf("Expected kind NumericParseError, got '%s'", response.Kind)
	}
}

func TestExtractText_UnsupportedLayout(t *testing.T) {
	server := newTestServer()

	w := postText(t, server, textBody(t, textRequest{Pages: []string{zenithPage}, OpeningBalance: "0", Layout: "GTBANK"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", w.Code)
	}

	var response errorResponse
	json.NewDecoder(w.Body).Decode(&response)
	if response.Kind != "MalformedLayout" {
		t.Errorf("Expected kind MalformedLayout, got '%s'", response.Kind)
	}
}

func TestExtractText_BadRequest(t *testing.T) {
	server := newTestServer()

	if w := postText(t, server, "{"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad json, got %d", w.Code)
	}
	if w := postText(t, server, textBody(t, textRequest{OpeningBalance: "abc"})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad balance, got %d", w.Code)
	}
	if w := postText(t, server, textBody(t, textRequest{OpeningBalance: "1", Format: "ods"})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad format, got %d", w.Code)
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		input    []string
		expected string
	}{
		{[]string{"", "", "third"}, "third"},
		{[]string{"first", "second"}, "first"},
		{[]string{"", ""}, ""},
		{[]string{}, ""},
		{[]string{"only"}, "only"},
	}

	for _, tt := range tests {
		result := coalesce(tt.input...)
		if result != tt.expected {
			t.Errorf("coalesce(%v) = '%s', expected '%s'", tt.input, result, tt.expected)
		}
	}
}

func TestHandler(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	if handler == nil {
		t.Fatal("Expected handler to be returned")
	}

	if handler != server.mux {
		t.Error("Expected handler to be the server's mux")
	}
}
