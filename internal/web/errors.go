package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/snepalysis/internal/logging"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Client-facing errors. Codes are part of the public API.
var (
	errNotFound    = ErrorResponse{Code: 0, Msg: "Not found."}
	errBadRequest  = ErrorResponse{Code: 1, Msg: "Bad request."}
	errInternal    = ErrorResponse{Code: 2, Msg: "Internal server error."}
	errRateLimited = ErrorResponse{Code: 3, Msg: "Too many requests."}
)

// respondError logs err with request context and writes resp with status.
// err may be nil for client errors that need no server-side detail.
func respondError(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse, err error) {
	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", resp.Code,
	}
	if err != nil {
		logger.Error("request error", append(attrs, "error", err.Error())...)
	} else {
		logger.Debug("request rejected", attrs...)
	}

	writeJSONStatus(w, status, resp)
}

// writeJSON encodes v as a 200 JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
