// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ResponseError is a non-2xx answer from the API.
type ResponseError struct {
	StatusCode int
	Message    string

	// Fields lists per-field validation failures (422 answers).
	Fields []FieldError
}

// FieldError is one entry of the "errors" array of a 422 answer.
type FieldError struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (e *ResponseError) Error() string {
	message := fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
	for _, field := range e.Fields {
		detail := field.Message
		if detail == "" {
			detail = field.Code
		}
		message += fmt.Sprintf("; %s.%s: %s", field.Resource, field.Field, detail)
	}
	return message
}

// RateLimited reports a primary (403) or secondary (429) rate limit.
func (e *ResponseError) RateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if e.StatusCode != http.StatusForbidden {
		return false
	}
	lower := strings.ToLower(e.Message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse detection")
}

// Transient reports whether the failure is GitHub's rather than the
// request's, so that retrying later may succeed.
func (e *ResponseError) Transient() bool {
	return e.StatusCode >= 500 || e.RateLimited()
}

// IsNotFound reports whether err carries a 404 answer.
func IsNotFound(err error) bool {
	var failure *ResponseError
	return errors.As(err, &failure) && failure.StatusCode == http.StatusNotFound
}

func decodeError(statusCode int, body []byte) *ResponseError {
	var wire struct {
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	if err := json.Unmarshal(body, &wire); err != nil || wire.Message == "" {
		return &ResponseError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	}
	return &ResponseError{StatusCode: statusCode, Message: wire.Message, Fields: wire.Errors}
}
