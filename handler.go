package cql

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/etag"
	"github.com/nlstn/go-cql/internal/observability"
)

// RequestIDHeader carries the request id, taken from the request or generated.
const RequestIDHeader = "X-Request-ID"

// Diagnostic is the JSON form of a rejected query.
type Diagnostic struct {
	URI     string `json:"uri"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Offset  *int   `json:"offset,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

type diagnosticResponse struct {
	Diagnostic Diagnostic `json:"diagnostic"`
}

// Handler returns an http.Handler serving GET /compile?query=...&profile=...
//
// A compiled query is answered with 200 and {"q": ..., "nested": {"q1": ...}, "fq": [...]}.
// A rejected query is answered with 400 and an SRU diagnostic. Responses carry a weak
// ETag and honour If-None-Match.
func (c *Compiler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/compile", c.serveCompile)

	var h http.Handler = mux
	h = observability.ServerTimingMiddleware(c.obs)(h)
	h = observability.HTTPMiddleware(c.obs)(h)
	return h
}

func (c *Compiler) serveCompile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	logger := observability.LoggerWithTrace(ctx, c.logger).With(slog.String(observability.LogFieldRequestID, requestID))

	status := http.StatusOK
	defer func() {
		c.obs.Metrics().RecordRequest(ctx, status, time.Since(start))
		c.obs.Tracer().SetHTTPStatus(ctx, status)
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		status = http.StatusMethodNotAllowed
		http.Error(w, http.StatusText(status), status)
		return
	}

	params := r.URL.Query()
	if !params.Has("query") {
		status = http.StatusBadRequest
		writeJSON(w, status, diagnosticOf(diag.New(diag.MandatoryParameterNotSupplied, 0, "query")), logger)
		return
	}
	query := params.Get("query")
	profile := params.Get("profile")
	if profile == "" {
		profile = c.defaultProfile
	}

	timing := observability.StartTiming(ctx, observability.TimingCompile)
	res, err := c.CompileWithProfile(ctx, query, profile)
	timing.Stop()

	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			status = http.StatusBadRequest
			writeJSON(w, status, diagnosticOf(de), logger)
			return
		}
		status = http.StatusInternalServerError
		writeJSON(w, status, diagnosticOf(diag.New(diag.GeneralSystemError, 0, "")), logger)
		return
	}

	timing = observability.StartTiming(ctx, observability.TimingEncode)
	body, err := json.Marshal(res)
	timing.Stop()
	if err != nil {
		logger.Error("Failed to encode result", slog.String(observability.LogFieldError, err.Error()))
		status = http.StatusInternalServerError
		http.Error(w, http.StatusText(status), status)
		return
	}

	tag := etag.Generate(body)
	w.Header().Set("ETag", tag)
	if !etag.NoneMatch(r.Header.Get("If-None-Match"), tag) {
		status = http.StatusNotModified
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodGet {
		if _, err := w.Write(body); err != nil {
			logger.Debug("Failed to write response", slog.String(observability.LogFieldError, err.Error()))
		}
	}
}

func diagnosticOf(e *diag.Error) diagnosticResponse {
	return diagnosticResponse{Diagnostic: NewDiagnostic(e)}
}

// NewDiagnostic converts a rejected query error to its JSON form. Offset and excerpt are
// only set when the error carries the query text.
func NewDiagnostic(e *Error) Diagnostic {
	d := Diagnostic{
		URI:     e.Code.URI(),
		Code:    int(e.Code),
		Message: e.Code.Message(),
		Details: e.Detail,
	}
	if e.Position.Query != "" {
		offset := e.Position.Offset
		d.Offset = &offset
		d.Excerpt = e.Position.Excerpt()
	}
	return d
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("Failed to encode response", slog.String(observability.LogFieldError, err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("Failed to write response", slog.String(observability.LogFieldError, err.Error()))
	}
}
