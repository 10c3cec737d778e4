package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KaramelBytes/tabex/internal/chart"
	"github.com/KaramelBytes/tabex/internal/dataset"
	"github.com/KaramelBytes/tabex/internal/loader"
	"github.com/KaramelBytes/tabex/internal/logging"
	"github.com/KaramelBytes/tabex/internal/session"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Column string `json:"column,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// requestError is a malformed request: bad JSON, missing form fields.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error { return &requestError{msg: msg, err: err} }

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}
	var (
		ce  *dataset.ColumnError
		ke  *chart.KindError
		mbe *http.MaxBytesError
		re  *requestError
	)
	switch {
	case errors.As(err, &mbe):
		resp.Code = "upload_too_large"
		return http.StatusRequestEntityTooLarge, resp
	case errors.Is(err, loader.ErrUnsupportedFormat):
		resp.Code = "unsupported_format"
		return http.StatusUnsupportedMediaType, resp
	case errors.Is(err, loader.ErrParse):
		resp.Code = "parse_error"
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &ce):
		resp.Code = "unknown_column"
		resp.Column = ce.Column
		return http.StatusBadRequest, resp
	case errors.As(err, &ke):
		resp.Code = "incompatible_plot_kind"
		resp.Column = ke.Column
		resp.Kind = ke.Kind.String()
		return http.StatusBadRequest, resp
	case errors.Is(err, chart.ErrUnsupportedPlotKind):
		resp.Code = "unsupported_plot_kind"
		return http.StatusBadRequest, resp
	case errors.Is(err, chart.ErrIncompleteRequest):
		resp.Code = "incomplete_request"
		return http.StatusBadRequest, resp
	case errors.Is(err, session.ErrNotFound):
		resp.Code = "session_not_found"
		return http.StatusNotFound, resp
	case errors.As(err, &re):
		resp.Code = "bad_request"
		return http.StatusBadRequest, resp
	default:
		resp.Error = "internal server error"
		resp.Code = "internal"
		return http.StatusInternalServerError, resp
	}
}

// respondError logs err with the request id and writes the mapped reply.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)
	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "code", resp.Code, "error", err)
	}
	writeJSON(w, status, resp)
}

// writeJSON encodes v before writing the status so an encoding failure
// still produces a complete 500 reply.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		b, _ = json.Marshal(ErrorResponse{Error: "internal server error", Code: "internal"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		slog.Debug("write response", "error", err)
	}
}
