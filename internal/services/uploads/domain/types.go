// Package domain holds bulk upload requests and outcomes
package domain

import (
	"context"
	"time"
)

// Row is one contact of an upload
type Row struct {
	Name         string         `json:"name"          validate:"required,max=200"`
	Phone        string         `json:"phone"         validate:"required,max=40"`
	Email        string         `json:"email"         validate:"omitempty,email,max=254"`
	CustomFields map[string]any `json:"custom_fields"`
}

// Request is the POST body; the row ceiling is enforced by the service from config
type Request struct {
	SourceName string `json:"source_name" validate:"required,max=200"`
	ListID     string `json:"list_id"     validate:"max=120"`
	Rows       []Row  `json:"rows"        validate:"required,min=1"`
}

// RowError explains why one row was not stored; Row is 1 based
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Outcome is the stored result of one upload
type Outcome struct {
	UploadID     string     `json:"upload_id"`
	SourceName   string     `json:"source_name"`
	ListID       string     `json:"list_id,omitempty"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	Errors       []RowError `json:"errors"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Prepared is a row that passed validation, in canonical form
type Prepared struct {
	Index        int
	Name         string
	Phone        string
	Email        string
	SearchKey    string
	CustomFields map[string]any
}

// ServicePort is the uploads surface the HTTP layer uses
type ServicePort interface {
	Upload(ctx context.Context, tenantID string, req Request) (Outcome, error)
	Get(ctx context.Context, tenantID, id string) (Outcome, error)
}
