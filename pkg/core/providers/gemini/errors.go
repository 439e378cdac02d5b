package gemini

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vihome-ai/advisor-core/pkg/core"
)

type geminiErrorResponse struct {
	Error geminiError `json:"error"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// parseError maps a failed HTTP response onto the shared error taxonomy.
// The HTTP status takes precedence over the body's status string because
// proxies sometimes rewrite one but not the other.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var wrapped geminiErrorResponse
	if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Error.Message == "" {
		return statusError(resp.StatusCode, fmt.Sprintf("http %d: %s", resp.StatusCode, string(body)))
	}
	e := wrapped.Error

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return withStatus(core.NewRateLimitError(e.Message), resp.StatusCode, e.Status)
	case http.StatusServiceUnavailable:
		return withStatus(core.NewOverloadedError(e.Message), resp.StatusCode, e.Status)
	case http.StatusUnauthorized:
		return withStatus(core.NewAuthenticationError(e.Message), resp.StatusCode, e.Status)
	case http.StatusForbidden:
		return withStatus(core.NewPermissionError(e.Message), resp.StatusCode, e.Status)
	}

	switch e.Status {
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		return withStatus(core.NewInvalidRequestError(e.Message), resp.StatusCode, e.Status)
	case "UNAUTHENTICATED":
		return withStatus(core.NewAuthenticationError(e.Message), resp.StatusCode, e.Status)
	case "PERMISSION_DENIED":
		return withStatus(core.NewPermissionError(e.Message), resp.StatusCode, e.Status)
	case "NOT_FOUND":
		return withStatus(core.NewNotFoundError(e.Message), resp.StatusCode, e.Status)
	case "RESOURCE_EXHAUSTED":
		return withStatus(core.NewRateLimitError(e.Message), resp.StatusCode, e.Status)
	case "UNAVAILABLE":
		return withStatus(core.NewOverloadedError(e.Message), resp.StatusCode, e.Status)
	default:
		return withStatus(core.NewAPIError(e.Message), resp.StatusCode, e.Status)
	}
}

func statusError(status int, message string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return withStatus(core.NewRateLimitError(message), status, "")
	case status == http.StatusUnauthorized:
		return withStatus(core.NewAuthenticationError(message), status, "")
	case status == http.StatusForbidden:
		return withStatus(core.NewPermissionError(message), status, "")
	case status == http.StatusNotFound:
		return withStatus(core.NewNotFoundError(message), status, "")
	case status >= 500:
		return withStatus(core.NewOverloadedError(message), status, "")
	default:
		return withStatus(core.NewInvalidRequestError(message), status, "")
	}
}

func withStatus(err *core.Error, httpStatus int, code string) *core.Error {
	err.HTTPStatus = httpStatus
	err.Code = code
	return err
}
