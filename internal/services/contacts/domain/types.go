// Package domain holds the contact record and list query shapes
package domain

import (
	"context"
	"time"
)

// Status is where a contact sits in the calling workflow
type Status string

// Contact statuses
const (
	StatusNew       Status = "new"
	StatusQueued    Status = "queued"
	StatusCalled    Status = "called"
	StatusDoNotCall Status = "do_not_call"
)

// Sort orders a list query accepts
const (
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
	SortNameAsc     = "name_asc"
	SortNameDesc    = "name_desc"
)

// Contact is one callable person of a tenant
type Contact struct {
	ID           string         `json:"id"`
	ListID       string         `json:"list_id,omitempty"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email,omitempty"`
	Status       Status         `json:"status"`
	CustomFields map[string]any `json:"custom_fields"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ListQuery is the query string of GET /contacts
type ListQuery struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"   validate:"omitempty,min=1"`
	Search string `query:"search"  validate:"max=200"`
	Sort   string `query:"sort"    validate:"omitempty,oneof=created_desc created_asc name_asc name_desc"`
	Status string `query:"status"  validate:"omitempty,oneof=new queued called do_not_call"`
	ListID string `query:"list_id" validate:"max=120"`
}

// Filter is the tenant scoped selection a repo applies
type Filter struct {
	TenantID string
	Status   Status
	ListID   string
	// Search is already folded; matched as a substring of the stored search key
	Search string
}

// ListResult is one page plus the cursor that resumes after it
type ListResult struct {
	Items    []Contact
	Next     string
	PageSize int
	Total    int
}

// ServicePort is the contacts surface the HTTP layer uses
type ServicePort interface {
	List(ctx context.Context, tenantID string, q ListQuery) (ListResult, error)
	Get(ctx context.Context, tenantID, id string) (Contact, error)
	Delete(ctx context.Context, tenantID, id string) error
}
