// Package net holds transport neutral request context and response envelopes
package net

import (
	"context"

	"ringroster/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyTenantID ctxKey = "tenant_id"

// WithRequest annotates ctx with the request and tenant ids, also for logger.C
func WithRequest(ctx context.Context, reqID, tenantID string) context.Context {
	if reqID != "" {
		// chi's key so chimw.GetReqID agrees
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if tenantID != "" {
		ctx = context.WithValue(ctx, keyTenantID, tenantID)
	}
	if reqID == "" && tenantID == "" {
		return ctx
	}
	return logger.WithRequest(ctx, reqID, tenantID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// TenantID returns the tenant id on the context if present
func TenantID(ctx context.Context) string {
	v, _ := ctx.Value(keyTenantID).(string)
	return v
}
