// Package domain holds custom field definitions and the value rules uploads apply
package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FieldType is the value kind a custom field accepts
type FieldType string

// Field types
const (
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeEnum    FieldType = "enum"
)

// Valid reports whether t is a known type
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeBoolean, TypeDate, TypeEnum:
		return true
	}
	return false
}

// Field is one tenant scoped definition
type Field struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Description string    `json:"description"`
	Options     []string  `json:"options"`
	Enabled     bool      `json:"enabled"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CheckValue reports why v is not acceptable for f, nil when it is
// a JSON null is always accepted and clears the value
func (f Field) CheckValue(v any) error {
	if v == nil {
		return nil
	}
	switch f.Type {
	case TypeText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s must be text", f.Key)
		}
	case TypeNumber:
		switch n := v.(type) {
		case float64, int, int64, json.Number:
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
				return fmt.Errorf("%s must be a number", f.Key)
			}
		default:
			return fmt.Errorf("%s must be a number", f.Key)
		}
	case TypeBoolean:
		switch b := v.(type) {
		case bool:
		case string:
			if _, err := strconv.ParseBool(strings.TrimSpace(b)); err != nil {
				return fmt.Errorf("%s must be true or false", f.Key)
			}
		default:
			return fmt.Errorf("%s must be true or false", f.Key)
		}
	case TypeDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s must be a date in YYYY-MM-DD form", f.Key)
		}
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return fmt.Errorf("%s must be a date in YYYY-MM-DD form", f.Key)
		}
	case TypeEnum:
		s, ok := v.(string)
		if !ok || !slices.Contains(f.Options, s) {
			return fmt.Errorf("%s must be one of [%s]", f.Key, strings.Join(f.Options, " "))
		}
	default:
		return fmt.Errorf("%s has unknown type %q", f.Key, f.Type)
	}
	return nil
}

// Catalog indexes the enabled fields of one tenant by key
type Catalog map[string]Field

// Types returns key to type, the shape external extractors consume
func (c Catalog) Types() map[string]FieldType {
	out := make(map[string]FieldType, len(c))
	for k, f := range c {
		out[k] = f.Type
	}
	return out
}

// CreateInput is the POST body
type CreateInput struct {
	Key         string    `json:"key"         validate:"required,field_key"`
	Label       string    `json:"label"       validate:"required,max=120"`
	Type        FieldType `json:"type"        validate:"required,oneof=text number boolean date enum"`
	Description string    `json:"description" validate:"max=500"`
	Options     []string  `json:"options"     validate:"omitempty,max=50,dive,required,max=120"`
	Enabled     *bool     `json:"enabled"`
	Position    int       `json:"position"    validate:"min=0"`
}

// PatchInput is the PATCH body, nil leaves a property untouched
// key and type are fixed once created
type PatchInput struct {
	Label       *string   `json:"label"       validate:"omitnil,min=1,max=120"`
	Description *string   `json:"description" validate:"omitnil,max=500"`
	Options     *[]string `json:"options"     validate:"omitnil,max=50,dive,required,max=120"`
	Enabled     *bool     `json:"enabled"`
	Position    *int      `json:"position"    validate:"omitnil,min=0"`
}

// CatalogPort is what other modules may ask of fields
type CatalogPort interface {
	// EnabledFields returns the enabled definitions of tenant keyed by field key
	EnabledFields(ctx context.Context, tenantID string) (Catalog, error)
	// EnabledKeys returns the enabled keys of tenant with their types
	EnabledKeys(ctx context.Context, tenantID string) (map[string]FieldType, error)
}

// ServicePort is the fields service surface the HTTP layer uses
type ServicePort interface {
	CatalogPort
	List(ctx context.Context, tenantID string) ([]Field, error)
	Get(ctx context.Context, tenantID, id string) (Field, error)
	Create(ctx context.Context, tenantID string, in CreateInput) (Field, error)
	Update(ctx context.Context, tenantID, id string, in PatchInput) (Field, error)
	Delete(ctx context.Context, tenantID, id string) error
}
