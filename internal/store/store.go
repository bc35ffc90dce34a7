// Package store records query audit metadata. Only metadata is kept: which
// certificate was used, which key was queried, how the query ended and how
// long it took. Document content and identity material are never stored.
//
// Recording is optional; deployments without a database use the no-op
// recorder and lose nothing but the audit trail.
package store

import (
	"context"
	"time"
)

// QueryRecord is one audit entry for a distribution query.
type QueryRecord struct {

	// Fingerprint is the certificate fingerprint the query authenticated with
	Fingerprint string

	// AccessKey is the queried 44-digit document key
	AccessKey string

	// Outcome is "ok" or the failing pipeline stage code
	Outcome string

	// StatusCode is the authority status code, when one was received
	StatusCode string

	// Duration is how long the query took end to end
	Duration time.Duration
}

// Recorder persists query audit entries.
type Recorder interface {
	Record(ctx context.Context, rec QueryRecord) error
	Close()
}

// NopRecorder discards every entry.
type NopRecorder struct{}

// NewNop returns a recorder that discards every entry.
func NewNop() *NopRecorder { return &NopRecorder{} }

func (*NopRecorder) Record(context.Context, QueryRecord) error { return nil }
func (*NopRecorder) Close()                                    {}
