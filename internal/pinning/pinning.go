// Package pinning uploads content to the Pinata pinning API and returns
// gateway URLs for the resulting content identifiers.
package pinning

import "context"

// Pinner uploads content to a pinning service.
type Pinner interface {
	// PinFile uploads a binary file and returns its gateway URL.
	// One multipart POST, no retry: a failed pin must abort the caller's
	// flow before any transaction referencing the URL is submitted.
	PinFile(ctx context.Context, name string, data []byte) (string, error)

	// PinJSON uploads a JSON document and returns its gateway URL.
	PinJSON(ctx context.Context, doc interface{}) (string, error)
}
