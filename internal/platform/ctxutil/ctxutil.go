// Package ctxutil carries per-request values: the caller identity resolved by
// the auth middleware and the trace/request ids echoed in responses.
package ctxutil

import "context"

type (
	requestDataKey struct{}
	traceDataKey   struct{}
)

// RequestData is the caller identity. IsAdmin is the result of the shared
// admin policy, evaluated once when the token is verified.
type RequestData struct {
	TokenString string
	Subject     string
	Email       string
	Provider    string
	IsAdmin     bool
}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	return lookup[*RequestData](ctx, requestDataKey{})
}

// IsAdmin reports whether the request carries a verified admin identity.
func IsAdmin(ctx context.Context) bool {
	rd := GetRequestData(ctx)
	return rd != nil && rd.IsAdmin
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	return lookup[*TraceData](ctx, traceDataKey{})
}

func lookup[T any](ctx context.Context, key any) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(key).(T); ok {
		return v
	}
	return zero
}
