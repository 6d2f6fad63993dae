package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/iho/bankledger/internal/adapter/http/dto"
)

// writeError writes the {kind, message} body for err.
func writeError(w http.ResponseWriter, err error) {
	status, body := dto.NewErrorResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusRecorder remembers the status code written by the next handler.
// When body is non-nil it also keeps a copy of everything written.
type statusRecorder struct {
	http.ResponseWriter

	statusCode  int
	wroteHeader bool
	body        *bytes.Buffer
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if r.body != nil {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
