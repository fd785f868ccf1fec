// Package store persists certificate documents and serves the image assets
// embedded in them. Documents are immutable once written; a certificate is
// rendered exactly once and re-served from storage afterwards.
package store

import "context"

// DocumentStore holds rendered certificate PDFs keyed by their storage path.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// AssetStore serves the uploaded images referenced by applications and LGAs:
// passport photographs, official seals and signature scans.
type AssetStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}
