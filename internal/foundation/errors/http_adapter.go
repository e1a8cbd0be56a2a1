package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

var httpStatuses = map[ErrorCategory]int{
	CategoryValidation: http.StatusBadRequest,
	CategoryConfig:     http.StatusBadRequest,
	CategoryNotFound:   http.StatusNotFound,
	CategoryRender:     http.StatusUnprocessableEntity,
	CategoryHighlight:  http.StatusUnprocessableEntity,
	CategoryTemplate:   http.StatusUnprocessableEntity,
	CategoryRuntime:    http.StatusServiceUnavailable,
}

// HTTPErrorAdapter writes classified errors as JSON responses. The preview
// server uses it to report a failed build on its health endpoint.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an HTTP adapter. A nil logger uses slog.Default().
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error payload.
type HTTPErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusCodeFor maps err to an HTTP status; anything unmapped is a 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := httpStatuses[c.category]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes err as JSON with its mapped status and logs it.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	a.logger.Log(r.Context(), slogLevel(SeverityOf(err)), err.Error(), slog.Int("status", status))
}

// FormatErrorResponse builds the payload: message, category and context.
// The cause, when present, is reported under details.cause.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}
	resp := HTTPErrorResponse{Error: c.message, Code: string(c.category)}
	if len(c.context) > 0 || c.cause != nil {
		resp.Details = make(map[string]any, len(c.context)+1)
	}
	for k, v := range c.context {
		resp.Details[k] = v
	}
	if c.cause != nil {
		resp.Details["cause"] = c.cause.Error()
	}
	return resp
}
