package domain

import "context"

// WriterPort records requests; it never fails the caller
type WriterPort interface {
	Record(ctx context.Context, rec Record)
}

// QueryPort reads the trail back
type QueryPort interface {
	Recent(ctx context.Context, limit int) ([]Record, error)
	ByRequest(ctx context.Context, requestID string) (Record, error)
}
