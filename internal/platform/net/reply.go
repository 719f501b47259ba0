package net

import (
	"net/http"

	perr "ringroster/internal/platform/errors"
)

// Envelope is the body of every API response; clients decode it with their own Data type
type Envelope[T any] struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       T              `json:"data,omitempty"`
}

// Page describes the position of a list response
// An empty Cursor means there is nothing after this page
type Page struct {
	Cursor   string `json:"cursor"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
}

// List is the data of a paginated response
type List[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
}

// Success builds a success envelope for status
func Success(status int, data any, reqID string) Envelope[any] {
	return Envelope[any]{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Failure maps err to its status and error envelope
func Failure(err error, reqID string) (int, Envelope[any]) {
	status, w := perr.HTTP(err)
	return status, Envelope[any]{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Error:      w.Message,
		Field:      w.Field,
		RequestID:  reqID,
	}
}

// Err turns a decoded error envelope back into a project error, nil for success statuses
func (e Envelope[T]) Err(status int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return perr.FromWire(status, perr.Wire{Code: e.Code, Message: e.Error, Field: e.Field})
}
