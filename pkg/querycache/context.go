package querycache

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying qc.
func NewContext(ctx context.Context, qc *QueryCache) context.Context {
	return context.WithValue(ctx, ctxKey{}, qc)
}

// FromContext returns the QueryCache carried by ctx, or nil.
func FromContext(ctx context.Context) *QueryCache {
	qc, _ := ctx.Value(ctxKey{}).(*QueryCache)
	return qc
}
